package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impresso/impresso-essentials/pkg/versioning/aggregators"
)

func TestAddByTitleYearAccumulates(t *testing.T) {
	m := NewDataManifest(StageCanonical, "12-canonical-final")

	require.NoError(t, m.AddByTitleYear("GDL", "1900", map[string]int64{"issues": 10, "pages": 40}))
	require.NoError(t, m.AddByTitleYear("GDL", "1900", map[string]int64{"issues": 5, "content_items_out": 7}))
	m.RunID = "canonical-ingest-v1"

	doc, err := m.Finalize(ManifestVersion{Major: 1})
	require.NoError(t, err)

	require.Len(t, doc.MediaList, 1)
	require.Len(t, doc.MediaList[0].MediaStatistics, 1)
	stats := doc.MediaList[0].MediaStatistics[0].Stats
	assert.Equal(t, int64(15), stats["issues"])
	assert.Equal(t, int64(40), stats["pages"])
	assert.Equal(t, int64(7), stats["content_items_out"])
}

func TestAddByTitleYearMergeOrderIndependent(t *testing.T) {
	batches := []map[string]int64{
		{"issues": 3, "pages": 12},
		{"issues": 2, "ft_tokens": 100},
		{"pages": 8, "ft_tokens": 50},
	}

	// forward order
	a := NewDataManifest(StageRebuilt, "22-rebuilt-final")
	a.RunID = "rebuilt-run"
	for _, b := range batches {
		require.NoError(t, a.AddByTitleYear("EXP", "1950", b))
	}
	docA, err := a.Finalize(ManifestVersion{Major: 1})
	require.NoError(t, err)

	// reverse order
	b := NewDataManifest(StageRebuilt, "22-rebuilt-final")
	b.RunID = "rebuilt-run"
	for i := len(batches) - 1; i >= 0; i-- {
		require.NoError(t, b.AddByTitleYear("EXP", "1950", batches[i]))
	}
	docB, err := b.Finalize(ManifestVersion{Major: 1})
	require.NoError(t, err)

	assert.Equal(t,
		docA.MediaList[0].MediaStatistics[0].Stats,
		docB.MediaList[0].MediaStatistics[0].Stats)
	assert.Equal(t, docA.OverallStatistics[0].Stats, docB.OverallStatistics[0].Stats)
}

func TestAddAfterFinalizeFails(t *testing.T) {
	m := NewDataManifest(StageCanonical, "12-canonical-final")
	m.RunID = "canonical-run"
	require.NoError(t, m.AddByTitleYear("GDL", "1900", map[string]int64{"issues": 1}))

	_, err := m.Finalize(ManifestVersion{Major: 1})
	require.NoError(t, err)

	err = m.AddByTitleYear("GDL", "1901", map[string]int64{"issues": 1})
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestFinalizeTwiceFails(t *testing.T) {
	m := NewDataManifest(StageCanonical, "12-canonical-final")
	m.RunID = "canonical-run"
	require.NoError(t, m.AddByTitleYear("GDL", "1900", map[string]int64{"issues": 1}))

	_, err := m.Finalize(ManifestVersion{Major: 1})
	require.NoError(t, err)
	_, err = m.Finalize(ManifestVersion{Major: 1, Minor: 1})
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestFinalizeEmptyFails(t *testing.T) {
	m := NewDataManifest(StageCanonical, "12-canonical-final")
	_, err := m.Finalize(ManifestVersion{Major: 1})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestFinalizeDocumentShape(t *testing.T) {
	m := NewDataManifest(StageCanonical, "12-canonical-final")
	m.RunID = "canonical-ingest-2024"
	m.SetCodeCommit("0123456789abcdef")
	m.AppendToNotes("Full reingest of the RERO batch.", false)

	require.NoError(t, m.AddByTitleYear("GDL", "1901", map[string]int64{"issues": 2}))
	require.NoError(t, m.AddByTitleYear("GDL", "1900", map[string]int64{"issues": 3}))
	require.NoError(t, m.AddByTitleYear("EXP", "1950", map[string]int64{"issues": 5}))

	doc, err := m.Finalize(ManifestVersion{Major: 4, Minor: 5})
	require.NoError(t, err)

	assert.Equal(t, "v4-5-0", doc.MftVersion)
	assert.Equal(t, "s3://12-canonical-final/canonical_v4-5-0.json", doc.MftS3Path)
	assert.Equal(t, "canonical", doc.DataStage)
	assert.Equal(t, "0123456789abcdef", doc.CodeGitCommit)
	assert.Equal(t, "Full reingest of the RERO batch.", doc.Notes)
	assert.NotEmpty(t, doc.MftGenerationDate)

	// media sorted by title, years sorted within a title
	require.Len(t, doc.MediaList, 2)
	assert.Equal(t, "EXP", doc.MediaList[0].MediaTitle)
	assert.Equal(t, "GDL", doc.MediaList[1].MediaTitle)
	require.Len(t, doc.MediaList[1].MediaStatistics, 2)
	assert.Equal(t, "GDL-1900", doc.MediaList[1].MediaStatistics[0].Element)
	assert.Equal(t, "GDL-1901", doc.MediaList[1].MediaStatistics[1].Element)

	// corpus-level counters are the sum over all titles and years
	require.Len(t, doc.OverallStatistics, 1)
	assert.Equal(t, "corpus", doc.OverallStatistics[0].Granularity)
	assert.Equal(t, int64(10), doc.OverallStatistics[0].Stats["issues"])

	// a finalized document passes schema validation
	assert.NoError(t, ValidateDocument(doc))
}

func TestFinalizeGeneratesRunID(t *testing.T) {
	m := NewDataManifest(StageTopics, "42-processed-data-final/topics")
	require.NoError(t, m.AddByTitleYear("GDL", "1900", map[string]int64{"topics": 4}))

	doc, err := m.Finalize(ManifestVersion{Major: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.RunID)
	assert.Contains(t, doc.RunID, "topics-")
}

func TestValidateDocumentRejectsBadVersion(t *testing.T) {
	doc := &ManifestDocument{
		MftVersion:        "4.5.0",
		MftGenerationDate: "2024-01-01 00:00:00",
		MftS3Path:         "s3://12-canonical-final/canonical_v4-5-0.json",
		DataStage:         "canonical",
		OutputBucket:      "12-canonical-final",
		RunID:             "canonical-run",
		MediaList:         []MediaEntry{},
		OverallStatistics: []StatsEntry{},
	}
	assert.Error(t, ValidateDocument(doc))
}

func TestValidateDocumentRejectsUnknownStage(t *testing.T) {
	doc := &ManifestDocument{
		MftVersion:        "v1-0-0",
		MftGenerationDate: "2024-01-01 00:00:00",
		MftS3Path:         "s3://12-canonical-final/mystery_v1-0-0.json",
		DataStage:         "mystery",
		OutputBucket:      "12-canonical-final",
		RunID:             "mystery-run",
		MediaList:         []MediaEntry{},
		OverallStatistics: []StatsEntry{},
	}
	assert.Error(t, ValidateDocument(doc))
}

func TestAddYearStats(t *testing.T) {
	m := NewDataManifest(StageLangident, "42-processed-data-final/langident")
	m.RunID = "langident-run"

	stats := []aggregators.YearStats{
		{Title: "GDL", Year: "1900", Counts: map[string]int64{"content_items_out": 3, "lg_fr": 3}},
		{Title: "GDL", Year: "1901", Counts: map[string]int64{"content_items_out": 2, "lg_de": 2}},
	}
	require.NoError(t, m.AddYearStats(stats))
	assert.Equal(t, 1, m.TitleCount())
}

func TestOnlyCountingKeepsModificationDateEmpty(t *testing.T) {
	m := NewDataManifest(StageRebuilt, "22-rebuilt-final")
	m.RunID = "rebuilt-count"
	m.OnlyCounting = true
	require.NoError(t, m.AddByTitleYear("GDL", "1900", map[string]int64{"content_items_out": 2}))

	doc, err := m.Finalize(ManifestVersion{Major: 1})
	require.NoError(t, err)
	require.Len(t, doc.MediaList, 1)
	assert.Empty(t, doc.MediaList[0].LastModificationDate)
	assert.NoError(t, ValidateDocument(doc))
}
