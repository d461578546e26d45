package entity

import (
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// Sample relation names.
const (
	RelSampleSource          = "source"
	RelSamplePopulations     = "populations"
	RelSampleDataCollections = "dataCollections"
)

// Sample root row: sample_id, name, biosample_id, sex.
var Sample = register(&Descriptor{
	Kind:  domain.KindSample,
	Index: "sample",
	IDCol: 1,
	Template: func() *document.Record {
		doc := document.NewRecord("name", "biosampleId", "sex")
		doc.Set("source", document.NewList())
		doc.Set("populations", document.NewList())
		doc.Set("dataCollections", document.NewList())
		return doc
	},
	Fields: []Field{
		{Path: "name", Col: 1, Coerce: row.AsString},
		{Path: "biosampleId", Col: 2, Coerce: row.AsString},
		{Path: "sex", Col: 3, Coerce: row.AsString},
	},
	Relations: []Relation{
		{
			// sample_id, source name, description, url
			Name: RelSampleSource,
			Folds: []Fold{
				&Collection{Target: "source", Key: []int{3, 1, 2}, Fields: []Field{
					{Path: "url", Col: 3, Coerce: row.AsString},
					{Path: "name", Col: 1, Coerce: row.AsString},
					{Path: "description", Col: 2, Coerce: row.AsString},
				}},
			},
		},
		{
			// sample_id, population code, name, description, elastic_id,
			// superpopulation code, superpopulation name
			Name: RelSamplePopulations,
			Folds: []Fold{
				&Collection{Target: "populations", Key: []int{4, 6, 2, 5, 3, 1}, Fields: []Field{
					{Path: "elasticId", Col: 4, Coerce: row.AsString},
					{Path: "superpopulationName", Col: 6, Coerce: row.AsString},
					{Path: "name", Col: 2, Coerce: row.AsString},
					{Path: "superpopulationCode", Col: 5, Coerce: row.AsString},
					{Path: "description", Col: 3, Coerce: row.AsString},
					{Path: "code", Col: 1, Coerce: row.AsString},
				}},
			},
		},
		{
			// sample_id, data type code, analysis group description, title, reuse_policy
			Name: RelSampleDataCollections,
			Folds: []Fold{
				&Grouped{
					Target: "dataCollections",
					Key:    []int{4, 3},
					Fields: []Field{
						{Path: "dataReusePolicy", Col: 4, Coerce: row.AsString},
						{Path: "title", Col: 3, Coerce: row.AsString},
					},
					CategoryCol: 1,
					ValueCol:    2,
				},
			},
		},
	},
})
