package versioning

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/impresso/impresso-essentials/pkg/utils"
	"github.com/impresso/impresso-essentials/pkg/versioning/aggregators"
)

// manifestState tracks the one-way lifecycle of a manifest:
// empty -> populating -> finalized. Finalization is irreversible.
type manifestState int

const (
	stateEmpty manifestState = iota
	statePopulating
	stateFinalized
)

// ErrFinalized is returned when statistics are added to a manifest
// that has already been finalized.
var ErrFinalized = errors.New("manifest is already finalized")

// ErrEmpty is returned when a manifest is finalized without a single
// statistics entry.
var ErrEmpty = errors.New("manifest holds no statistics")

// DataManifest accumulates per-title, per-year statistics for one
// processing run and produces the manifest document once finalized.
// Safe for concurrent use.
type DataManifest struct {
	Stage         DataStage
	OutputBucket  string
	InputBucket   string
	ModelID       string
	RunID         string
	IsPatch       bool
	PatchedFields []string
	OnlyCounting  bool
	PreviousPath  string

	mu       sync.Mutex
	state    manifestState
	commit   string
	notes    []string
	titles   map[string]map[string]map[string]int64
	modified map[string]string
}

// NewDataManifest creates an empty manifest for a stage writing to
// the given output bucket or bucket partition.
func NewDataManifest(stage DataStage, outputBucket string) *DataManifest {
	return &DataManifest{
		Stage:        stage,
		OutputBucket: outputBucket,
		titles:       make(map[string]map[string]map[string]int64),
		modified:     make(map[string]string),
	}
}

// AddByTitleYear merges the given counters into the statistics of one
// title and year. Counters are purely additive, so repeated calls for
// the same title-year accumulate rather than overwrite.
//
// Fails once the manifest has been finalized.
func (m *DataManifest) AddByTitleYear(title, year string, counts map[string]int64) error {
	if title == "" || year == "" {
		return fmt.Errorf("cannot add statistics without a title and year (title=%q, year=%q)", title, year)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateFinalized {
		return fmt.Errorf("cannot add statistics for %s-%s: %w", title, year, ErrFinalized)
	}
	m.state = statePopulating

	years, ok := m.titles[title]
	if !ok {
		years = make(map[string]map[string]int64)
		m.titles[title] = years
	}
	dst, ok := years[year]
	if !ok {
		dst = make(map[string]int64)
		years[year] = dst
	}
	aggregators.MergeCounts(dst, counts)
	if !m.OnlyCounting {
		// A counting-only run does not touch the data, so the titles
		// keep their previous modification date.
		m.modified[title] = utils.Timestamp(true)
	}
	return nil
}

// AddYearStats merges a batch of aggregated yearly statistics into
// the manifest.
func (m *DataManifest) AddYearStats(stats []aggregators.YearStats) error {
	for _, ys := range stats {
		if err := m.AddByTitleYear(ys.Title, ys.Year, ys.Counts); err != nil {
			return err
		}
	}
	return nil
}

// AppendToNotes records a free-text note, prepended or appended to
// the ones already present.
func (m *DataManifest) AppendToNotes(note string, toStart bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if toStart {
		m.notes = append([]string{note}, m.notes...)
		return
	}
	m.notes = append(m.notes, note)
}

// SetCodeCommit records the git commit hash of the processing code
// that produced the data.
func (m *DataManifest) SetCodeCommit(hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commit = hash
}

// TitleCount reports how many media titles hold statistics so far.
func (m *DataManifest) TitleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

// Finalize freezes the manifest at the given version and builds the
// manifest document. After a successful call no further statistics
// can be added, and calling Finalize again fails.
func (m *DataManifest) Finalize(version ManifestVersion) (*ManifestDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateFinalized {
		return nil, ErrFinalized
	}
	if m.state == stateEmpty {
		return nil, ErrEmpty
	}
	m.state = stateFinalized

	runID := m.RunID
	if runID == "" {
		// No run identifier provided: derive one so the manifest is
		// still traceable.
		runID = fmt.Sprintf("%s-%s", m.Stage, uuid.NewString()[:8])
	}

	doc := &ManifestDocument{
		MftVersion:        version.String(),
		MftGenerationDate: utils.Timestamp(true),
		MftS3Path:         fmt.Sprintf("s3://%s/%s", strings.TrimPrefix(m.OutputBucket, "s3://"), ManifestFilename(m.Stage, version)),
		InputMftS3Path:    m.PreviousPath,
		CodeGitCommit:     m.commit,
		DataStage:         string(m.Stage),
		InputBucket:       m.InputBucket,
		OutputBucket:      m.OutputBucket,
		ModelID:           m.ModelID,
		RunID:             runID,
		IsPatch:           m.IsPatch,
		PatchedFields:     m.PatchedFields,
		Notes:             strings.Join(m.notes, " "),
	}

	overall := make(map[string]int64)
	for _, title := range m.sortedTitles() {
		years := m.titles[title]
		entry := MediaEntry{
			MediaTitle:           title,
			LastModificationDate: m.modified[title],
		}
		for _, year := range sortedKeys(years) {
			counts := years[year]
			entry.MediaStatistics = append(entry.MediaStatistics, StatsEntry{
				Stage:       string(m.Stage),
				Granularity: "year",
				Element:     fmt.Sprintf("%s-%s", title, year),
				Stats:       copyCounts(counts),
			})
			aggregators.MergeCounts(overall, counts)
		}
		doc.MediaList = append(doc.MediaList, entry)
	}
	doc.OverallStatistics = []StatsEntry{{
		Stage:       string(m.Stage),
		Granularity: "corpus",
		Stats:       overall,
	}}

	return doc, nil
}

func (m *DataManifest) sortedTitles() []string {
	titles := make([]string, 0, len(m.titles))
	for t := range m.titles {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

func sortedKeys(years map[string]map[string]int64) []string {
	keys := make([]string, 0, len(years))
	for y := range years {
		keys = append(keys, y)
	}
	sort.Strings(keys)
	return keys
}

func copyCounts(counts map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
