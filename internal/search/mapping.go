package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping: English analysis on title and
// body, keyword fields for the owner/scope/work/kind filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleField)

	// Stored so highlighting can cut fragments from it.
	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = en.AnalyzerName
	bodyField.Store = true
	bodyField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("body", bodyField)

	for _, name := range []string{"owner", "scope", "work_id", "item_id", "kind"} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		docMapping.AddFieldMappingsAt(name, f)
	}

	updatedField := bleve.NewNumericFieldMapping()
	updatedField.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
