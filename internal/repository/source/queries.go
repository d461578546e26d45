package source

import (
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/entity"
)

// keysToken is replaced with one placeholder per root key.
const keysToken = "{keys}"

type kindQueries struct {
	root      string
	relations map[string]string
}

// Column order of every query matches the positional mapping in domain/entity.
var queries = map[domain.Kind]kindQueries{
	domain.KindPopulation: {
		root: `SELECT p.population_id, p.code, p.name, p.description, p.latitude, p.longitude,
       p.elastic_id, p.display_order, COUNT(DISTINCT dcsp.sample_id) AS num_samples,
       sp.code, sp.name, sp.display_colour, sp.display_order
FROM population p
JOIN superpopulation sp ON p.superpopulation_id = sp.superpopulation_id
JOIN dc_sample_pop_assign dcsp ON p.population_id = dcsp.population_id
GROUP BY p.population_id, p.code, p.name, p.description, p.latitude, p.longitude,
         p.elastic_id, p.display_order, sp.code, sp.name, sp.display_colour, sp.display_order
ORDER BY p.population_id`,
		relations: map[string]string{
			entity.RelPopulationDataCollections: `SELECT DISTINCT dspa.population_id, dt.code, ag.description, dc.title,
       dc.reuse_policy, dc.reuse_policy_precedence
FROM dc_sample_pop_assign dspa
JOIN sample_file sf ON dspa.sample_id = sf.sample_id
JOIN file f ON sf.file_id = f.file_id
JOIN analysis_group ag ON f.analysis_group_id = ag.analysis_group_id
JOIN data_type dt ON f.data_type_id = dt.data_type_id
JOIN file_data_collection fdc ON f.file_id = fdc.file_id
JOIN data_collection dc ON fdc.data_collection_id = dc.data_collection_id
     AND dspa.data_collection_id = dc.data_collection_id
WHERE dspa.population_id IN ({keys})
ORDER BY dc.reuse_policy_precedence, dc.title, dt.code, ag.description`,
			entity.RelPopulationOverlaps: `SELECT dspa1.population_id, p.elastic_id, p.description, s.name
FROM dc_sample_pop_assign dspa1
JOIN dc_sample_pop_assign dspa2 ON dspa1.sample_id = dspa2.sample_id
JOIN population p ON dspa2.population_id = p.population_id
JOIN sample s ON dspa1.sample_id = s.sample_id
WHERE dspa1.population_id IN ({keys})
  AND dspa2.population_id <> dspa1.population_id
ORDER BY p.description, s.name`,
		},
	},
	domain.KindSample: {
		root: `SELECT s.sample_id, s.name, s.biosample_id, s.sex FROM sample s ORDER BY s.sample_id`,
		relations: map[string]string{
			entity.RelSampleSource: `SELECT s.sample_id, ss.name, ss.description, ss.url
FROM sample s
JOIN sample_source ss ON s.sample_source_id = ss.sample_source_id
WHERE s.sample_id IN ({keys})`,
			entity.RelSamplePopulations: `SELECT DISTINCT dspa.sample_id, p.code, p.name, p.description, p.elastic_id,
       sp.code, sp.name
FROM dc_sample_pop_assign dspa
JOIN population p ON dspa.population_id = p.population_id
JOIN superpopulation sp ON p.superpopulation_id = sp.superpopulation_id
WHERE dspa.sample_id IN ({keys})
ORDER BY p.code`,
			entity.RelSampleDataCollections: `SELECT DISTINCT sf.sample_id, dt.code, ag.description, dc.title,
       dc.reuse_policy, dc.reuse_policy_precedence
FROM file f
LEFT JOIN data_type dt ON f.data_type_id = dt.data_type_id
LEFT JOIN analysis_group ag ON f.analysis_group_id = ag.analysis_group_id
JOIN sample_file sf ON sf.file_id = f.file_id
JOIN file_data_collection fdc ON f.file_id = fdc.file_id
JOIN data_collection dc ON fdc.data_collection_id = dc.data_collection_id
WHERE sf.sample_id IN ({keys})
ORDER BY dc.reuse_policy_precedence, dc.title, dt.code, ag.description`,
		},
	},
	domain.KindFile: {
		root: `SELECT f.file_id, f.url, f.md5, dt.code, ag.description
FROM file f
LEFT JOIN data_type dt ON f.data_type_id = dt.data_type_id
LEFT JOIN analysis_group ag ON f.analysis_group_id = ag.analysis_group_id
ORDER BY f.file_id`,
		relations: map[string]string{
			entity.RelFileDataCollections: `SELECT fdc.file_id, dc.title, dc.reuse_policy
FROM file_data_collection fdc
JOIN data_collection dc ON fdc.data_collection_id = dc.data_collection_id
WHERE fdc.file_id IN ({keys})
ORDER BY dc.reuse_policy_precedence, dc.title`,
			entity.RelFileSamples: `SELECT DISTINCT fdc.file_id, s.name, p.description
FROM file_data_collection fdc
JOIN sample_file sf ON sf.file_id = fdc.file_id
JOIN sample s ON sf.sample_id = s.sample_id
JOIN dc_sample_pop_assign dspa ON s.sample_id = dspa.sample_id
     AND fdc.data_collection_id = dspa.data_collection_id
JOIN population p ON dspa.population_id = p.population_id
WHERE fdc.file_id IN ({keys})
ORDER BY s.name, p.description`,
		},
	},
	domain.KindDataCollection: {
		root: `SELECT dc.data_collection_id, dc.code, dc.title, dc.short_title, dc.reuse_policy,
       dc.website, dc.display_order
FROM data_collection dc
ORDER BY dc.data_collection_id`,
		relations: map[string]string{
			entity.RelDataCollectionSampleCount: `SELECT fdc.data_collection_id, COUNT(DISTINCT sf.sample_id)
FROM file_data_collection fdc
JOIN sample_file sf ON sf.file_id = fdc.file_id
WHERE fdc.data_collection_id IN ({keys})
GROUP BY fdc.data_collection_id`,
			entity.RelDataCollectionPopulationCount: `SELECT fdc.data_collection_id, COUNT(DISTINCT dcsp.population_id)
FROM file_data_collection fdc
JOIN sample_file sf ON sf.file_id = fdc.file_id
JOIN dc_sample_pop_assign dcsp ON dcsp.sample_id = sf.sample_id
     AND dcsp.data_collection_id = fdc.data_collection_id
WHERE fdc.data_collection_id IN ({keys})
GROUP BY fdc.data_collection_id`,
			entity.RelDataCollectionPublications: `SELECT pub.data_collection_id, pub.display_order, pub.publication, pub.url
FROM publications pub
WHERE pub.data_collection_id IN ({keys}) AND pub.publication IS NOT NULL
ORDER BY pub.display_order`,
			entity.RelDataCollectionAnalysis: `SELECT DISTINCT fdc.data_collection_id, dt.code, ag.description
FROM file f
LEFT JOIN data_type dt ON f.data_type_id = dt.data_type_id
LEFT JOIN analysis_group ag ON f.analysis_group_id = ag.analysis_group_id
JOIN file_data_collection fdc ON f.file_id = fdc.file_id
WHERE fdc.data_collection_id IN ({keys})
ORDER BY dt.code, ag.description`,
		},
	},
	domain.KindSuperpopulation: {
		root: `SELECT sp.superpopulation_id, sp.elastic_id, sp.name, sp.display_colour, sp.display_order
FROM superpopulation sp
ORDER BY sp.superpopulation_id`,
	},
	domain.KindAnalysisGroup: {
		root: `SELECT DISTINCT ag.analysis_group_id, ag.code, ag.description, ag.short_title,
       ag.display_order, ag.long_description
FROM file f
JOIN analysis_group ag ON f.analysis_group_id = ag.analysis_group_id
JOIN sample_file sf ON sf.file_id = f.file_id
ORDER BY ag.analysis_group_id`,
	},
}

// Files no longer present anywhere that are still flagged as indexed.
const staleFilesQuery = `SELECT f.file_id FROM file f
WHERE f.foreign_file IS NOT TRUE AND f.in_current_tree IS NOT TRUE
  AND f.indexed_in_elasticsearch IS TRUE
ORDER BY f.file_id`

const syncIndexedFlagQuery = `UPDATE file SET indexed_in_elasticsearch = (foreign_file IS TRUE OR in_current_tree IS TRUE)`
