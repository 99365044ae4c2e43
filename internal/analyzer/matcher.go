package analyzer

import (
	"strings"
	"unicode"
)

// TermMatch reports where a term occurs in a text.
type TermMatch struct {
	Term      string   `json:"term"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences"`
}

// FindTermMatches counts case-insensitive occurrences of each term in text
// and collects the sentences containing it. Terms without occurrences are
// omitted, blank terms are ignored.
func FindTermMatches(text string, terms []string) []TermMatch {
	if text == "" || len(terms) == 0 {
		return nil
	}

	lowerText := strings.ToLower(text)
	sentences := splitIntoSentences(text)

	results := make([]TermMatch, 0, len(terms))
	for _, term := range terms {
		lowerTerm := strings.ToLower(strings.TrimSpace(term))
		if lowerTerm == "" {
			continue
		}
		count := strings.Count(lowerText, lowerTerm)
		if count == 0 {
			continue
		}

		var matched []string
		for _, s := range sentences {
			if strings.Contains(s.lower, lowerTerm) {
				matched = append(matched, s.original)
			}
		}
		results = append(results, TermMatch{Term: term, Count: count, Sentences: matched})
	}
	return results
}

// QueryTerms splits a search query into the words worth matching.
func QueryTerms(query string) []string {
	return strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

type sentence struct {
	original string
	lower    string
}

// splitIntoSentences splits on '.', '!' and '?', keeping the delimiter.
func splitIntoSentences(text string) []sentence {
	sentences := make([]sentence, 0, max(1, len(text)/50))
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, sentence{original: s, lower: strings.ToLower(s)})
		}
	}

	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			add(text[start : i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		add(text[start:])
	}
	return sentences
}
