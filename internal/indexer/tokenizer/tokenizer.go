// Package tokenizer provides text normalisation for the index builder and the
// query parser. It applies NFKC folding and lower-casing, splits text on
// UAX#29 word boundaries, drops segments without letters or digits, and
// stems each word with the English Snowball stemmer.
//
// The same Normalizer must be used to build an index and to query it: a
// mismatch does not fail, it silently matches nothing.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// Normalizer turns raw text into a sequence of index terms.
type Normalizer interface {
	Normalize(text string) []string
}

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// English is the default Normalizer. Stop words are stemmed, not removed.
type English struct{}

// Normalize implements Normalizer.
func (English) Normalize(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

// Tokenize breaks text into a slice of stemmed, lowercased Tokens.
func Tokenize(text string) []Token {
	text = strings.ToLower(norm.NFKC.String(text))
	segments := words.FromString(text)
	tokens := make([]Token, 0, len(text)/6)
	pos := 0
	for segments.Next() {
		word := segments.Value()
		if !isWord(word) {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     stemmed,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// isWord reports whether a segment contains at least one letter or digit.
func isWord(segment string) bool {
	for _, r := range segment {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func stem(word string) string {
	return english.Stem(word, true)
}
