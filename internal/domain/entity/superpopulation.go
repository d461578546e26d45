package entity

import (
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// Superpopulation root row: superpopulation_id, elastic_id, name, display_colour, display_order.
var Superpopulation = register(&Descriptor{
	Kind:  domain.KindSuperpopulation,
	Index: "superpopulation",
	IDCol: 1,
	Template: func() *document.Record {
		return document.NewRecord("elasticId", "name", "display_colour", "display_order")
	},
	Fields: []Field{
		{Path: "elasticId", Col: 1, Coerce: row.AsString},
		{Path: "name", Col: 2, Coerce: row.AsString},
		{Path: "display_colour", Col: 3, Coerce: row.AsString},
		{Path: "display_order", Col: 4, Coerce: row.AsNullableInt},
	},
})
