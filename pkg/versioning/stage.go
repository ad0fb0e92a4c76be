// Package versioning builds, validates and publishes the manifest that
// summarizes one processing run over the corpus.
package versioning

import "fmt"

// DataStage names a step of the processing pipeline. The set is
// closed: every stage has its own record shape and its own statistics
// aggregation.
type DataStage string

const (
	StageCanonical    DataStage = "canonical"
	StageRebuilt      DataStage = "rebuilt"
	StageEntities     DataStage = "entities"
	StageNewsAgencies DataStage = "newsagencies"
	StagePassim       DataStage = "passim"
	StageLangident    DataStage = "langident"
	StageTextReuse    DataStage = "text-reuse"
	StageTopics       DataStage = "topics"
	StageEmbImages    DataStage = "emb-images"
	StageEmbDocs      DataStage = "emb-docs"
	StageLingProc     DataStage = "lingproc"
	StageSolrText     DataStage = "solr-text"
	StageOCRQA        DataStage = "ocrqa"
)

// allStages lists every known stage, in pipeline order.
var allStages = []DataStage{
	StageCanonical, StageRebuilt, StageEntities, StageNewsAgencies,
	StagePassim, StageLangident, StageTextReuse, StageTopics,
	StageEmbImages, StageEmbDocs, StageLingProc, StageSolrText,
	StageOCRQA,
}

// ValidateStage maps a configuration label to its DataStage. An
// unrecognized label is a fatal configuration error.
func ValidateStage(label string) (DataStage, error) {
	for _, stage := range allStages {
		if string(stage) == label {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown data stage: %q", label)
}

// Stages returns the closed set of known stages.
func Stages() []DataStage {
	out := make([]DataStage, len(allStages))
	copy(out, allStages)
	return out
}
