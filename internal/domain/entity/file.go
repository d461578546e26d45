package entity

import (
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// File relation names.
const (
	RelFileDataCollections = "dataCollections"
	RelFileSamples         = "samples"
)

// File root row: file_id, url, md5, data type code, analysis group description.
var File = register(&Descriptor{
	Kind:  domain.KindFile,
	Index: "file",
	IDCol: 0,
	Template: func() *document.Record {
		doc := document.NewRecord("url", "md5", "dataType", "analysisGroup", "dataReusePolicy")
		doc.Set("dataCollections", document.NewList())
		doc.Set("samples", document.NewList())
		doc.Set("populations", document.NewList())
		return doc
	},
	Fields: []Field{
		{Path: "url", Col: 1, Coerce: row.AsString},
		{Path: "md5", Col: 2, Coerce: row.AsString},
		{Path: "dataType", Col: 3, Coerce: row.AsString},
		{Path: "analysisGroup", Col: 4, Coerce: row.AsString},
	},
	Relations: []Relation{
		{
			// file_id, data collection title, reuse_policy
			Name: RelFileDataCollections,
			Folds: []Fold{
				&Values{Target: "dataCollections", Col: 1, Coerce: row.AsString},
				&First{Target: "", Fields: []Field{
					{Path: "dataReusePolicy", Col: 2, Coerce: row.AsString},
				}},
			},
		},
		{
			// file_id, sample name, population description
			Name: RelFileSamples,
			Folds: []Fold{
				&Values{Target: "samples", Col: 1, Coerce: row.AsString},
				&Values{Target: "populations", Col: 2, Coerce: row.AsString},
			},
		},
	},
})
