package entity

import (
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// Data collection relation names.
const (
	RelDataCollectionSampleCount     = "sampleCount"
	RelDataCollectionPopulationCount = "populationCount"
	RelDataCollectionPublications    = "publications"
	RelDataCollectionAnalysis        = "analysis"
)

// DataCollection root row:
// data_collection_id, code, title, short_title, reuse_policy, website, display_order.
var DataCollection = register(&Descriptor{
	Kind:     domain.KindDataCollection,
	Index:    "data_collections",
	IDCol:    1,
	Template: dataCollectionTemplate,
	Fields: []Field{
		{Path: "code", Col: 1, Coerce: row.AsString},
		{Path: "title", Col: 2, Coerce: row.AsString},
		{Path: "shortTitle", Col: 3, Coerce: row.AsString},
		{Path: "dataReusePolicy", Col: 4, Coerce: row.AsString},
		{Path: "website", Col: 5, Coerce: row.AsString},
		{Path: "displayOrder", Col: 6, Coerce: row.AsNullableInt},
	},
	Relations: []Relation{
		{
			// data_collection_id, distinct sample count
			Name: RelDataCollectionSampleCount,
			Folds: []Fold{
				&First{Target: "samples", Fields: []Field{{Path: "count", Col: 1, Coerce: row.AsInt}}},
			},
		},
		{
			// data_collection_id, distinct population count
			Name: RelDataCollectionPopulationCount,
			Folds: []Fold{
				&First{Target: "populations", Fields: []Field{{Path: "count", Col: 1, Coerce: row.AsInt}}},
			},
		},
		{
			// data_collection_id, display_order, publication, url
			Name: RelDataCollectionPublications,
			Folds: []Fold{
				&Collection{Target: "publications", Key: []int{1, 2, 3}, Fields: []Field{
					{Path: "displayOrder", Col: 1, Coerce: row.AsNullableInt},
					{Path: "name", Col: 2, Coerce: row.AsString},
					{Path: "url", Col: 3, Coerce: row.AsString},
				}},
			},
		},
		{
			// data_collection_id, data type code, analysis group description
			Name: RelDataCollectionAnalysis,
			Folds: []Fold{
				&Categories{Target: "", CategoryCol: 1, ValueCol: 2},
			},
		},
	},
})

func dataCollectionTemplate() *document.Record {
	doc := document.NewRecord("code", "title", "shortTitle", "dataReusePolicy", "website", "displayOrder")
	samples := document.NewRecord()
	samples.Set("count", int64(0))
	doc.Set("samples", samples)
	pops := document.NewRecord()
	pops.Set("count", int64(0))
	doc.Set("populations", pops)
	doc.Set("publications", document.NewList())
	doc.Set(document.TypesKey, document.NewList())
	return doc
}
