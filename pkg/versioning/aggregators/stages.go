package aggregators

import (
	"strings"

	"github.com/tidwall/gjson"
)

// builtins maps each pipeline stage to its aggregation function. The
// stage labels mirror the ones accepted by the manifest configuration.
var builtins = map[string]Func{
	"canonical":    canonicalStats,
	"rebuilt":      fullTextStats,
	"passim":       fullTextStats,
	"entities":     entityStats,
	"newsagencies": entityStats,
	"langident":    langidentStats,
	"text-reuse":   textReuseStats,
	"topics":       topicsStats,
	"emb-images":   embeddingStats,
	"emb-docs":     embeddingStats,
	"lingproc":     lingprocStats,
	"solr-text":    contentItemStats,
	"ocrqa":        contentItemStats,
}

// yearFromID extracts the publication year from a canonical record
// identifier such as "GDL-1900-01-02-a" or "GDL-1900-01-02-a-i0042".
// Returns "" when no four-digit segment is present.
func yearFromID(id string) string {
	for _, part := range strings.Split(id, "-") {
		if len(part) != 4 {
			continue
		}
		digits := true
		for _, c := range part {
			if c < '0' || c > '9' {
				digits = false
				break
			}
		}
		if digits {
			return part
		}
	}
	return ""
}

// recordYear reads the year from the record's own identifier, trying
// "id" first and "ci_id" as a fallback.
func recordYear(line string) string {
	if id := gjson.Get(line, "id").String(); id != "" {
		return yearFromID(id)
	}
	return yearFromID(gjson.Get(line, "ci_id").String())
}

// canonicalStats aggregates canonical issue records: one record per
// issue, with its content items and page identifiers inlined.
func canonicalStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		year := recordYear(line)
		acc.add(year, CountIssues, 1)
		acc.add(year, CountPages, gjson.Get(line, "pp.#").Int())
		acc.add(year, CountContentItems, gjson.Get(line, "i.#").Int())
		acc.add(year, CountImages, int64(len(gjson.Get(line, `i.#(m.tp=="img")#`).Array())))
	}
	return acc.flush(), nil
}

// fullTextStats aggregates rebuilt records: one record per content
// item, carrying the reconstructed full text in "ft".
func fullTextStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		year := recordYear(line)
		acc.add(year, CountContentItems, 1)
		if ft := gjson.Get(line, "ft").String(); ft != "" {
			acc.add(year, CountFullTextTokens, int64(len(strings.Fields(ft))))
		}
	}
	return acc.flush(), nil
}

// entityStats aggregates named-entity records: one record per content
// item, with its mentions in "nes". Mentions carrying a wikidata
// identifier also count as links.
func entityStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		year := recordYear(line)
		acc.add(year, CountContentItems, 1)
		nes := gjson.Get(line, "nes")
		acc.add(year, CountNEMentions, int64(len(nes.Array())))
		linked := int64(0)
		nes.ForEach(func(_, mention gjson.Result) bool {
			if mention.Get("wkd_id").String() != "" {
				linked++
			}
			return true
		})
		acc.add(year, CountNELinks, linked)
	}
	return acc.flush(), nil
}

// langidentStats aggregates language-identification records. Images
// have no language and are counted apart; every other item increments
// a per-language counter keyed "lg_<code>".
func langidentStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		year := recordYear(line)
		acc.add(year, CountContentItems, 1)
		if gjson.Get(line, "tp").String() == "img" {
			acc.add(year, CountImages, 1)
			continue
		}
		if lg := gjson.Get(line, "lg").String(); lg != "" {
			acc.add(year, "lg_"+lg, 1)
		}
	}
	return acc.flush(), nil
}

// textReuseStats aggregates text-reuse passages: one record per
// passage, pointing back at its content item through "ci_id".
func textReuseStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		acc.add(recordYear(line), CountTextReusePassages, 1)
	}
	return acc.flush(), nil
}

// topicsStats aggregates topic-modeling records: one record per
// content item, with its topic assignments in "topics".
func topicsStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		year := recordYear(line)
		acc.add(year, CountContentItems, 1)
		acc.add(year, CountTopics, gjson.Get(line, "topics.#").Int())
	}
	return acc.flush(), nil
}

// embeddingStats aggregates embedding records, one vector per record.
func embeddingStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		acc.add(recordYear(line), CountEmbeddings, 1)
	}
	return acc.flush(), nil
}

// lingprocStats aggregates linguistic-processing records: one record
// per content item, tokens nested under "sents".
func lingprocStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		year := recordYear(line)
		acc.add(year, CountContentItems, 1)
		tokens := int64(0)
		gjson.Get(line, "sents").ForEach(func(_, sent gjson.Result) bool {
			tokens += sent.Get("tok.#").Int()
			return true
		})
		acc.add(year, CountFullTextTokens, tokens)
	}
	return acc.flush(), nil
}

// contentItemStats is the minimal aggregation for stages that emit
// one record per content item with no countable payload.
func contentItemStats(title string, lines <-chan string) ([]YearStats, error) {
	acc := newAccumulator(title)
	for line := range lines {
		acc.add(recordYear(line), CountContentItems, 1)
	}
	return acc.flush(), nil
}
