// Package textutils provides small text-processing helpers for OCR
// pipeline output: language-aware tokenization, whitespace-insensitive
// search and sentence trimming.
package textutils

import (
	"regexp"
	"strings"
)

// whitespaceRules describe how punctuation attaches to tokens for a
// given language.
type whitespaceRules struct {
	noSpaceBefore      []string
	noSpaceAfter       []string
	noSpaceBeforeAfter []string
}

var languageRules = map[string]whitespaceRules{
	"fr": {
		noSpaceBefore:      []string{".", ",", ")", "]", "}", "°", "...", "!", "?", ";", ":", "»"},
		noSpaceAfter:       []string{"(", "[", "{", "«"},
		noSpaceBeforeAfter: []string{"'", "-"},
	},
	"en": {
		noSpaceBefore:      []string{".", ",", ")", "]", "}", "...", "!", "?", ";", ":"},
		noSpaceAfter:       []string{"(", "[", "{"},
		noSpaceBeforeAfter: []string{"'"},
	},
}

func contains(set []string, s string) bool {
	for _, item := range set {
		if item == s {
			return true
		}
	}
	return false
}

// Tokenise splits text into tokens following the whitespace rules of
// the given language, with punctuation as separate tokens. Languages
// without specific rules fall back to plain whitespace splitting.
func Tokenise(text, language string) []string {
	if text == "" {
		return []string{}
	}

	rules, ok := languageRules[language]
	if !ok {
		return strings.Fields(text)
	}

	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		ch := string(r)
		switch {
		case contains(rules.noSpaceBeforeAfter, ch),
			contains(rules.noSpaceBefore, ch),
			contains(rules.noSpaceAfter, ch):
			flush()
			tokens = append(tokens, ch)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	if tokens == nil {
		return []string{}
	}
	return tokens
}

var spacesAndTabs = regexp.MustCompile(`[ \t]+`)

// NormalizeText removes spaces and tabs but keeps newline characters,
// for whitespace-insensitive matching against OCR text.
func NormalizeText(text string) string {
	return spacesAndTabs.ReplaceAllString(text, "")
}

// SearchText finds every occurrence of search in articleText ignoring
// spaces and tabs, and returns the (start, end) index pairs in the
// original text.
func SearchText(articleText, search string) [][2]int {
	normalizedArticle := NormalizeText(articleText)
	normalizedSearch := NormalizeText(search)

	var indices [][2]int
	if normalizedSearch == "" {
		return indices
	}

	// originalPos[i] is the index in articleText of the i-th byte of
	// the normalized text. Space and tab are single bytes, so a
	// byte-wise scan stays aligned with multibyte characters.
	originalPos := make([]int, 0, len(normalizedArticle))
	for i := 0; i < len(articleText); i++ {
		if articleText[i] != ' ' && articleText[i] != '\t' {
			originalPos = append(originalPos, i)
		}
	}

	start := 0
	for {
		found := strings.Index(normalizedArticle[start:], normalizedSearch)
		if found < 0 {
			break
		}
		found += start

		// newlines are kept in the normalized text but still map
		origStart := originalPos[found]
		origEnd := originalPos[found+len(normalizedSearch)-1] + 1

		indices = append(indices, [2]int{origStart, origEnd})
		start = found + 1
	}

	return indices
}

// SegmentAndTrimSentences splits an article into sentences on terminal
// punctuation and cuts every sentence longer than maxLength characters
// at the last space before the limit. Proper linguistic segmentation is out of
// scope; terminal punctuation followed by whitespace is the boundary.
func SegmentAndTrimSentences(article string, maxLength int) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(article)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			if atEnd || runes[i+1] == ' ' || runes[i+1] == '\n' {
				sentence := strings.TrimSpace(current.String())
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}
	if tail := strings.TrimSpace(current.String()); tail != "" {
		sentences = append(sentences, tail)
	}

	if maxLength <= 0 {
		return sentences
	}

	var trimmed []string
	for _, sentence := range sentences {
		// Length and cut positions count characters, not bytes, so a
		// cut never lands inside a multibyte character.
		rs := []rune(sentence)
		for len(rs) > maxLength {
			cut := -1
			for j := maxLength - 1; j >= 0; j-- {
				if rs[j] == ' ' {
					cut = j
					break
				}
			}
			if cut <= 0 {
				cut = maxLength
			}
			trimmed = append(trimmed, strings.TrimRight(string(rs[:cut]), " "))
			rs = []rune(strings.TrimLeft(string(rs[cut:]), " "))
		}
		if len(rs) > 0 {
			trimmed = append(trimmed, string(rs))
		}
	}

	return trimmed
}
