package entity

import (
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// AnalysisGroup root row:
// analysis_group_id, code, description, short_title, display_order, long_description.
var AnalysisGroup = register(&Descriptor{
	Kind:  domain.KindAnalysisGroup,
	Index: "analysis_group",
	IDCol: 1,
	Template: func() *document.Record {
		return document.NewRecord("code", "description", "shortTitle", "displayOrder", "longDescription")
	},
	Fields: []Field{
		{Path: "code", Col: 1, Coerce: row.AsString},
		{Path: "description", Col: 2, Coerce: row.AsString},
		{Path: "shortTitle", Col: 3, Coerce: row.AsString},
		{Path: "displayOrder", Col: 4, Coerce: row.AsNullableInt},
		{Path: "longDescription", Col: 5, Coerce: row.AsString},
	},
})
