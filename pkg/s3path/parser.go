// Package s3path decomposes structured object-store keys into their
// named fields.
//
// Keys produced by the processing stages follow a fixed naming
// convention:
//
//	s3://01-processed-data-final/entities/embeddings/entities-ner-en_core_web_sm_v3.1.0-en_v1-0-0/Reuters/UK/UK-2021.jsonl.bz2
//	       |bucket             | |label | |subtype | |run id                                    | |prov | |media| |file stem|
//
// Parsing is a pure function of the key string: either every required
// field matches and a ParsedKey is returned, or the whole key is
// rejected. Keys with extra or misplaced path segments do not match.
package s3path

import "regexp"

// The grammar is one anchored expression with named capture groups,
// built from segment-sized pieces. Version triples are captured as
// strings since they are reported verbatim in manifests.
const (
	bucketPart = `^(?:s3://)?` +
		`(?P<bucket>(?P<stage_number>\d{2})-[a-z][a-z0-9-]*-(?P<phase>final|staging|sandbox))/`

	// processing label, with an optional subtype directory below it
	labelPart = `(?P<processing_label>[a-z][a-z0-9_]*)/` +
		`(?:(?P<processing_subtype_label>[a-z][a-z0-9_]*)/)?`

	// run id: <label>-<model id>_<run version>, where the model id is
	// <task>[-<subtask>]-<specificity>[_v<maj>.<min>.<patch>]-<lang>
	runIDPart = `(?P<run_id>[a-z][a-z0-9_]*-` +
		`(?P<model_id>(?P<task>[a-z]+)(?:-(?P<subtask>[a-z]+))?-` +
		`(?P<model_specificity>[a-z][a-z0-9_]*?)` +
		`(?:_(?P<model_version>v(?P<model_major>\d+)\.(?P<model_minor>\d+)\.(?P<model_patch>\d+)))?` +
		`-(?P<lang>[a-z]+))` +
		`_(?P<run_version>v(?P<run_major>\d+)-(?P<run_minor>\d+)-(?P<run_patch>\d+)))/`

	// optional provider directory, then the media alias directory
	aliasPart = `(?:(?P<provider_alias>[A-Za-z][A-Za-z0-9_-]*)/)?` +
		`(?P<media_alias>[A-Za-z][A-Za-z0-9_]*)/`

	// file stem ends in the year, optionally followed by a suffix
	filePart = `(?P<file_stem>[^/]+-(?P<year>\d{4})(?:-[a-z][a-z0-9_-]*)*)\.jsonl\.bz2$`
)

var keyPattern = regexp.MustCompile(bucketPart + labelPart + runIDPart + aliasPart + filePart)

// Version is a semantic version triple kept in its string form.
type Version struct {
	Raw   string
	Major string
	Minor string
	Patch string
}

// ParsedKey holds every field derivable from a structured object key.
// Optional fields are nil when absent from the key, never empty
// strings.
type ParsedKey struct {
	Bucket          string
	StageNumber     string
	Phase           string
	ProcessingLabel string
	SubtypeLabel    *string
	RunID           string

	// model identifier and its components
	ModelID          string
	Task             string
	Subtask          *string
	ModelSpecificity string
	ModelVersion     *Version
	Lang             string

	RunVersion    Version
	ProviderAlias *string
	MediaAlias    string
	FileStem      string
	Year          string
}

// ParseKey matches key against the naming grammar. The second return
// value is false when the key does not conform; callers use it to
// filter large listings cheaply.
func ParseKey(key string) (*ParsedKey, bool) {
	match := keyPattern.FindStringSubmatch(key)
	if match == nil {
		return nil, false
	}

	groups := make(map[string]string, len(match))
	for i, name := range keyPattern.SubexpNames() {
		if name != "" {
			groups[name] = match[i]
		}
	}

	parsed := &ParsedKey{
		Bucket:           groups["bucket"],
		StageNumber:      groups["stage_number"],
		Phase:            groups["phase"],
		ProcessingLabel:  groups["processing_label"],
		SubtypeLabel:     optional(groups["processing_subtype_label"]),
		RunID:            groups["run_id"],
		ModelID:          groups["model_id"],
		Task:             groups["task"],
		Subtask:          optional(groups["subtask"]),
		ModelSpecificity: groups["model_specificity"],
		Lang:             groups["lang"],
		RunVersion: Version{
			Raw:   groups["run_version"],
			Major: groups["run_major"],
			Minor: groups["run_minor"],
			Patch: groups["run_patch"],
		},
		ProviderAlias: optional(groups["provider_alias"]),
		MediaAlias:    groups["media_alias"],
		FileStem:      groups["file_stem"],
		Year:          groups["year"],
	}

	if groups["model_version"] != "" {
		parsed.ModelVersion = &Version{
			Raw:   groups["model_version"],
			Major: groups["model_major"],
			Minor: groups["model_minor"],
			Patch: groups["model_patch"],
		}
	}

	return parsed, true
}

// optional maps an empty capture to an explicit absent value.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
