// Package analysis defines the text analyzers used for lexical retrieval.
//
// An Analyzer has two renditions: a Postgres text search configuration name
// (used server-side by the postgres backend) and a Go token pipeline (used to
// build sparse query vectors for the qdrant backend). Documents must have been
// indexed with the same analyzer for lexical scores to be meaningful.
package analysis

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Analyzer names.
const (
	StandardName = "standard"
	CustomName   = "custom"
)

// Filter transforms a token stream.
type Filter func(tokens []string) []string

// Analyzer is a tokenizer followed by a chain of token filters.
type Analyzer struct {
	// Name identifies the analyzer (and the sparse vector built with it).
	Name string

	// Regconfig is the Postgres text search configuration for this analyzer.
	Regconfig string

	filters []Filter
}

// Standard returns the default analyzer: standard tokenizer + lowercase.
func Standard() Analyzer {
	return Analyzer{
		Name:      StandardName,
		Regconfig: "simple",
		filters:   []Filter{Lowercase},
	}
}

// Custom returns the custom analyzer: standard tokenizer, snowball stemming,
// lowercase, then ASCII folding. regconfig names the matching Postgres
// configuration.
func Custom(regconfig string) Analyzer {
	return Analyzer{
		Name:      CustomName,
		Regconfig: regconfig,
		filters:   []Filter{Snowball, Lowercase, ASCIIFolding},
	}
}

// Analyze runs text through the tokenizer and filters.
func (a Analyzer) Analyze(text string) []string {
	tokens := Tokenize(text)
	for _, f := range a.filters {
		tokens = f(tokens)
	}
	return tokens
}

// Tokenize splits text on anything that is not a letter, digit or mark.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.Is(unicode.Mn, r)
	})
}

// Lowercase lowercases every token.
func Lowercase(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

// Snowball stems English tokens. Stop words are left unstemmed.
func Snowball(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = english.Stem(t, false)
	}
	return out
}

// ASCIIFolding strips diacritics (é -> e). Tokens that fold to nothing are dropped.
func ASCIIFolding(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		folded := fold(t)
		if folded == "" {
			continue
		}
		out = append(out, folded)
	}
	return out
}

func fold(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		return s
	}
	return out
}
