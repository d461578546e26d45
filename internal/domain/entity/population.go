package entity

import (
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// Population relation names.
const (
	RelPopulationDataCollections = "dataCollections"
	RelPopulationOverlaps        = "overlappingPopulations"
)

// Population root row:
// population_id, code, name, description, latitude, longitude, elastic_id,
// display_order, sample_count, superpopulation code, name, display_colour, display_order.
var Population = register(&Descriptor{
	Kind:     domain.KindPopulation,
	Index:    "population",
	IDCol:    1,
	Template: populationTemplate,
	Fields: []Field{
		{Path: "code", Col: 1, Coerce: row.AsString},
		{Path: "name", Col: 2, Coerce: row.AsString},
		{Path: "description", Col: 3, Coerce: row.AsString},
		{Path: "latitude", Col: 4, Coerce: row.AsFloat},
		{Path: "longitude", Col: 5, Coerce: row.AsFloat},
		{Path: "elasticId", Col: 6, Coerce: row.AsString},
		{Path: "display_order", Col: 7, Coerce: row.AsNullableInt},
		{Path: "samples", Col: 8, Coerce: row.AsInt},
		{Path: "superpopulation.code", Col: 9, Coerce: row.AsString},
		{Path: "superpopulation.name", Col: 10, Coerce: row.AsString},
		{Path: "superpopulation.display_color", Col: 11, Coerce: row.AsString},
		{Path: "superpopulation.display_order", Col: 12, Coerce: row.AsNullableInt},
	},
	Relations: []Relation{
		{
			// population_id, data type code, analysis group description, title, reuse_policy
			Name: RelPopulationDataCollections,
			Folds: []Fold{
				&Categories{Target: "dataCollections", CategoryCol: 1, ValueCol: 2},
				&First{Target: "dataCollections", Fields: []Field{
					{Path: "title", Col: 3, Coerce: row.AsString},
					{Path: "dataReusePolicy", Col: 4, Coerce: row.AsString},
				}},
			},
		},
		{
			// population_id, other elastic_id, other description, shared sample name
			Name: RelPopulationOverlaps,
			Folds: []Fold{
				&First{Target: "overlappingPopulations", Fields: []Field{
					{Path: "populationElasticId", Col: 1, Coerce: row.AsString},
					{Path: "populationDescription", Col: 2, Coerce: row.AsString},
				}},
				&Values{Target: "overlappingPopulations.sharedSamples", Col: 3, Key: []int{1, 3}, Coerce: row.AsString},
			},
		},
	},
	Derived: []Derivation{
		&Length{Target: "overlappingPopulations.sharedSampleCount", Of: "overlappingPopulations.sharedSamples"},
	},
})

func populationTemplate() *document.Record {
	doc := document.NewRecord(
		"code", "name", "description", "latitude", "longitude",
		"elasticId", "display_order", "samples",
	)
	doc.Set("superpopulation", document.NewRecord("code", "name", "display_color", "display_order"))

	dc := document.NewRecord()
	dc.Set(document.TypesKey, document.NewList())
	dc.Set("dataReusePolicy", nil)
	dc.Set("title", nil)
	doc.Set("dataCollections", dc)

	overlap := document.NewRecord("populationElasticId", "populationDescription")
	overlap.Set("sharedSamples", document.NewList())
	overlap.Set("sharedSampleCount", int64(0))
	doc.Set("overlappingPopulations", overlap)
	return doc
}
