// Package aggregators computes per-title, per-year statistics over
// the newline-delimited JSON records of a processing stage.
package aggregators

import "sort"

// Counter keys shared across stages. Every counter is additive, so
// partial results can be merged in any order.
const (
	CountIssues            = "issues"
	CountPages             = "pages"
	CountContentItems      = "content_items_out"
	CountFullTextTokens    = "ft_tokens"
	CountImages            = "images"
	CountNEMentions        = "ne_mentions"
	CountNELinks           = "ne_links"
	CountTopics            = "topics"
	CountTextReusePassages = "text_reuse_passages"
	CountEmbeddings        = "embeddings_el"
)

// YearStats holds the counters accumulated for one media title and
// one publication year.
type YearStats struct {
	Title  string
	Year   string
	Counts map[string]int64
}

// MergeCounts adds every counter of src into dst. Addition is
// associative and commutative, so merge order never changes the
// result.
func MergeCounts(dst, src map[string]int64) {
	for k, v := range src {
		dst[k] += v
	}
}

// accumulator gathers counters per year while records stream by.
type accumulator struct {
	title string
	years map[string]map[string]int64
}

func newAccumulator(title string) *accumulator {
	return &accumulator{title: title, years: make(map[string]map[string]int64)}
}

func (a *accumulator) add(year, counter string, n int64) {
	if year == "" {
		return
	}
	counts, ok := a.years[year]
	if !ok {
		counts = make(map[string]int64)
		a.years[year] = counts
	}
	counts[counter] += n
}

// flush returns the accumulated statistics sorted by year, so the
// output is deterministic for a given input.
func (a *accumulator) flush() []YearStats {
	years := make([]string, 0, len(a.years))
	for y := range a.years {
		years = append(years, y)
	}
	sort.Strings(years)

	out := make([]YearStats, 0, len(years))
	for _, y := range years {
		out = append(out, YearStats{Title: a.title, Year: y, Counts: a.years[y]})
	}
	return out
}
