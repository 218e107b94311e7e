package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"

	"cosim/internal/domain"
)

// Tokenizer turns raw text into normalized terms: NFKC folding, lower
// casing, UAX#29 word segmentation, stopword removal and optional stemming.
type Tokenizer struct {
	stemmer   *Stemmer
	stopwords map[string]struct{}
}

// NewTokenizer creates a Tokenizer. A nil stemmer disables stemming.
func NewTokenizer(stemmer *Stemmer) *Tokenizer {
	return &Tokenizer{
		stemmer:   stemmer,
		stopwords: defaultStopwords(),
	}
}

// Tokenize splits text into terms.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.ToLower(norm.NFKC.String(text))

	var tokens []string
	segments := words.FromString(text)
	for segments.Next() {
		word := segments.Value()
		if utf8.RuneCountInString(word) < 2 || !isWord(word) {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.stemmer != nil {
			word = t.stemmer.Stem(word)
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// TermFrequencies counts the occurrences of each token.
func TermFrequencies(tokens []string) domain.TermCounts {
	counts := make(domain.TermCounts, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return counts
}

// QueryFromText tokenizes text into a query weighted by raw term frequency.
func (t *Tokenizer) QueryFromText(text string) domain.Query {
	counts := TermFrequencies(t.Tokenize(text))
	query := make(domain.Query, len(counts))
	for term, count := range counts {
		query[term] = float64(count)
	}
	return query
}

// isWord reports whether a segment contains a letter or digit; UAX#29 also
// yields whitespace and punctuation segments.
func isWord(segment string) bool {
	for _, r := range segment {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
