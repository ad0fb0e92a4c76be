package versioning

// ManifestDocument is the serialized form of a manifest, the JSON
// that gets validated, committed to git and uploaded to S3.
type ManifestDocument struct {
	MftVersion        string       `json:"mft_version"`
	MftGenerationDate string       `json:"mft_generation_date"`
	MftS3Path         string       `json:"mft_s3_path"`
	InputMftS3Path    string       `json:"input_mft_s3_path,omitempty"`
	CodeGitCommit     string       `json:"code_git_commit"`
	DataStage         string       `json:"data_stage"`
	InputBucket       string       `json:"input_bucket,omitempty"`
	OutputBucket      string       `json:"output_bucket"`
	ModelID           string       `json:"model_id,omitempty"`
	RunID             string       `json:"run_id"`
	IsPatch           bool         `json:"is_patch"`
	PatchedFields     []string     `json:"patched_fields,omitempty"`
	Notes             string       `json:"notes"`
	MediaList         []MediaEntry `json:"media_list"`
	OverallStatistics []StatsEntry `json:"overall_statistics"`
}

// MediaEntry summarizes one media title within a manifest.
type MediaEntry struct {
	MediaTitle           string       `json:"media_title"`
	LastModificationDate string       `json:"last_modification_date,omitempty"`
	MediaStatistics      []StatsEntry `json:"media_statistics"`
}

// StatsEntry is one block of counters at a given granularity: "year"
// entries carry an element of the form "TITLE-YEAR", "title" and
// "corpus" entries aggregate over all years.
type StatsEntry struct {
	Stage       string           `json:"stage"`
	Granularity string           `json:"granularity"`
	Element     string           `json:"element,omitempty"`
	Stats       map[string]int64 `json:"nps_stats"`
}
