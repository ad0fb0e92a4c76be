package s3storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path   string
		bucket string
		key    string
	}{
		{"s3://22-rebuilt-final/GDL/GDL-1900.jsonl.bz2", "22-rebuilt-final", "GDL/GDL-1900.jsonl.bz2"},
		{"22-rebuilt-final/GDL", "22-rebuilt-final", "GDL"},
		{"s3://22-rebuilt-final", "22-rebuilt-final", ""},
		{"22-rebuilt-final", "22-rebuilt-final", ""},
	}
	for _, tt := range tests {
		bucket, key := SplitPath(tt.path)
		assert.Equal(t, tt.bucket, bucket, tt.path)
		assert.Equal(t, tt.key, key, tt.path)
	}
}

func TestHasArchiveSuffix(t *testing.T) {
	assert.True(t, hasArchiveSuffix("GDL/GDL-1900.jsonl.bz2"))
	assert.False(t, hasArchiveSuffix("GDL/GDL-1900.jsonl.gz"))
	assert.False(t, hasArchiveSuffix(".jsonl.bz2"))
}

func TestExtractLastTimestamp(t *testing.T) {
	lines := []string{
		`{"id":"a","ts":"2024-03-01T10:00:00Z"}`,
		`{"id":"b","ts":"2024-06-15T08:30:00Z"}`,
		`{"id":"c","ts":"2024-01-20T23:59:59Z"}`,
	}

	// all lines: the latest wins
	latest, err := ExtractLastTimestamp(lines, "ts", true, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 8, 30, 0, 0, time.UTC), latest)

	// single line mode: the first valid one wins
	first, err := ExtractLastTimestamp(lines, "ts", false, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), first)
}

func TestExtractLastTimestampFallsBackToOtherKeys(t *testing.T) {
	lines := []string{
		`{"id":"a","cdt":"2024-03-01 10:00:00"}`,
	}
	latest, err := ExtractLastTimestamp(lines, "ts", true, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), latest)
}

func TestExtractLastTimestampFallback(t *testing.T) {
	fallback := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	latest, err := ExtractLastTimestamp([]string{`{"id":"a"}`}, "ts", true, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, latest)

	// no fallback and no usable records is an error
	_, err = ExtractLastTimestamp([]string{`{"id":"a"}`}, "ts", true, time.Time{})
	assert.Error(t, err)

	// unknown timestamp key is rejected up front
	_, err = ExtractLastTimestamp([]string{`{"id":"a"}`}, "mystery", true, time.Time{})
	assert.Error(t, err)
}

func TestAliasFromPath(t *testing.T) {
	// alias directly below the partition
	alias, provider, err := AliasFromPath("passim/indeplux/indeplux-1889.jsonl.bz2", "passim")
	require.NoError(t, err)
	assert.Equal(t, "indeplux", alias)
	assert.Equal(t, "", provider)

	// provider level already present
	alias, provider, err = AliasFromPath("passim/BNL/indeplux/indeplux-1889.jsonl.bz2", "passim")
	require.NoError(t, err)
	assert.Equal(t, "indeplux", alias)
	assert.Equal(t, "BNL", provider)

	// no partition at all
	alias, provider, err = AliasFromPath("GDL/GDL-1900.jsonl.bz2", "")
	require.NoError(t, err)
	assert.Equal(t, "GDL", alias)
	assert.Equal(t, "", provider)

	_, _, err = AliasFromPath("passim/not_a_title/file.jsonl.bz2", "passim")
	assert.Error(t, err)
}

func TestConstructProviderKey(t *testing.T) {
	// provider inserted after the partition
	got := ConstructProviderKey("passim/indeplux/indeplux-1889.jsonl.bz2", "BNL", "passim", "")
	assert.Equal(t, "passim/BNL/indeplux/indeplux-1889.jsonl.bz2", got)

	// key already carries the provider: unchanged
	got = ConstructProviderKey("passim/BNL/indeplux/indeplux-1889.jsonl.bz2", "BNL", "passim", "BNL")
	assert.Equal(t, "passim/BNL/indeplux/indeplux-1889.jsonl.bz2", got)

	// without a partition the provider leads the key
	got = ConstructProviderKey("GDL/GDL-1900.jsonl.bz2", "LeTemps", "", "")
	assert.Equal(t, "LeTemps/GDL/GDL-1900.jsonl.bz2", got)
}
