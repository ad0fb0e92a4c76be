package aggregators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAggregator(t *testing.T, r *Registry, stage, title string, lines []string) []YearStats {
	t.Helper()
	fn, err := r.Get(stage)
	require.NoError(t, err)

	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, l := range lines {
			ch <- l
		}
	}()
	stats, err := fn(title, ch)
	require.NoError(t, err)
	return stats
}

func TestRegistryUnknownStage(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Get("mystery")
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestRegistryRejectsBadRegistrations(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("", contentItemStats))
	assert.Error(t, r.Register("custom", nil))

	require.NoError(t, r.Register("custom", contentItemStats))
	assert.Error(t, r.Register("custom", contentItemStats))
}

func TestDefaultRegistryCoversAllStages(t *testing.T) {
	r := DefaultRegistry()
	for _, stage := range []string{
		"canonical", "rebuilt", "entities", "newsagencies", "passim",
		"langident", "text-reuse", "topics", "emb-images", "emb-docs",
		"lingproc", "solr-text", "ocrqa",
	} {
		_, err := r.Get(stage)
		assert.NoError(t, err, stage)
	}
}

func TestCanonicalStats(t *testing.T) {
	lines := []string{
		`{"id":"GDL-1900-01-02-a","pp":["GDL-1900-01-02-a-p0001","GDL-1900-01-02-a-p0002"],"i":[{"m":{"id":"GDL-1900-01-02-a-i0001","tp":"ar"}},{"m":{"id":"GDL-1900-01-02-a-i0002","tp":"img"}}]}`,
		`{"id":"GDL-1900-01-03-a","pp":["GDL-1900-01-03-a-p0001"],"i":[{"m":{"id":"GDL-1900-01-03-a-i0001","tp":"ar"}}]}`,
		`{"id":"GDL-1901-01-02-a","pp":["GDL-1901-01-02-a-p0001"],"i":[]}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "canonical", "GDL", lines)

	require.Len(t, stats, 2)
	assert.Equal(t, "1900", stats[0].Year)
	assert.Equal(t, int64(2), stats[0].Counts[CountIssues])
	assert.Equal(t, int64(3), stats[0].Counts[CountPages])
	assert.Equal(t, int64(3), stats[0].Counts[CountContentItems])
	assert.Equal(t, int64(1), stats[0].Counts[CountImages])

	assert.Equal(t, "1901", stats[1].Year)
	assert.Equal(t, int64(1), stats[1].Counts[CountIssues])
	assert.Equal(t, int64(0), stats[1].Counts[CountContentItems])
}

func TestRebuiltStats(t *testing.T) {
	lines := []string{
		`{"id":"EXP-1950-06-01-a-i0001","ft":"three short words"}`,
		`{"id":"EXP-1950-06-02-a-i0001","ft":"two words"}`,
		`{"id":"EXP-1950-06-03-a-i0002","ft":""}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "rebuilt", "EXP", lines)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(3), stats[0].Counts[CountContentItems])
	assert.Equal(t, int64(5), stats[0].Counts[CountFullTextTokens])
}

func TestEntityStats(t *testing.T) {
	lines := []string{
		`{"id":"GDL-1900-01-02-a-i0001","nes":[{"surface":"Genève","wkd_id":"Q71"},{"surface":"Dupont"}]}`,
		`{"id":"GDL-1900-01-03-a-i0001","nes":[]}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "entities", "GDL", lines)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].Counts[CountContentItems])
	assert.Equal(t, int64(2), stats[0].Counts[CountNEMentions])
	assert.Equal(t, int64(1), stats[0].Counts[CountNELinks])
}

func TestLangidentStats(t *testing.T) {
	lines := []string{
		`{"id":"GDL-1900-01-02-a-i0001","lg":"fr","tp":"ar"}`,
		`{"id":"GDL-1900-01-02-a-i0002","lg":"de","tp":"ar"}`,
		`{"id":"GDL-1900-01-02-a-i0003","tp":"img"}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "langident", "GDL", lines)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(3), stats[0].Counts[CountContentItems])
	assert.Equal(t, int64(1), stats[0].Counts["lg_fr"])
	assert.Equal(t, int64(1), stats[0].Counts["lg_de"])
	assert.Equal(t, int64(1), stats[0].Counts[CountImages])
}

func TestTextReuseStats(t *testing.T) {
	lines := []string{
		`{"ci_id":"GDL-1900-01-02-a-i0001","text":"p1"}`,
		`{"ci_id":"GDL-1900-01-02-a-i0001","text":"p2"}`,
		`{"ci_id":"GDL-1902-01-02-a-i0001","text":"p3"}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "text-reuse", "GDL", lines)

	require.Len(t, stats, 2)
	assert.Equal(t, int64(2), stats[0].Counts[CountTextReusePassages])
	assert.Equal(t, int64(1), stats[1].Counts[CountTextReusePassages])
}

func TestTopicsStats(t *testing.T) {
	lines := []string{
		`{"id":"GDL-1900-01-02-a-i0001","topics":[{"t":"tm-fr-all-v2.0_tp07_fr","p":0.8},{"t":"tm-fr-all-v2.0_tp12_fr","p":0.2}]}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "topics", "GDL", lines)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Counts[CountContentItems])
	assert.Equal(t, int64(2), stats[0].Counts[CountTopics])
}

func TestLingprocStats(t *testing.T) {
	lines := []string{
		`{"id":"GDL-1900-01-02-a-i0001","sents":[{"tok":[{"t":"Le"},{"t":"chat"}]},{"tok":[{"t":"dort"}]}]}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "lingproc", "GDL", lines)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(3), stats[0].Counts[CountFullTextTokens])
}

func TestEmbeddingStats(t *testing.T) {
	lines := []string{
		`{"ci_id":"GDL-1900-01-02-a-i0001","emb":[0.1,0.2]}`,
		`{"ci_id":"GDL-1900-01-02-a-i0002","emb":[0.3,0.4]}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "emb-images", "GDL", lines)

	require.Len(t, stats, 1)
	assert.Equal(t, int64(2), stats[0].Counts[CountEmbeddings])
}

func TestRecordsWithoutYearAreSkipped(t *testing.T) {
	lines := []string{
		`{"id":"no-year-here"}`,
		`{"id":"GDL-1900-01-02-a-i0001"}`,
	}
	stats := runAggregator(t, DefaultRegistry(), "solr-text", "GDL", lines)

	require.Len(t, stats, 1)
	assert.Equal(t, "1900", stats[0].Year)
	assert.Equal(t, int64(1), stats[0].Counts[CountContentItems])
}

func TestMergeCounts(t *testing.T) {
	dst := map[string]int64{"issues": 2, "pages": 10}
	MergeCounts(dst, map[string]int64{"issues": 3, "ft_tokens": 7})

	assert.Equal(t, map[string]int64{"issues": 5, "pages": 10, "ft_tokens": 7}, dst)
}
