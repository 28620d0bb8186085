// Package tokenizer provides text tokenisation for the indexer and the query
// parser. It lower-cases input and splits on non-alphanumeric boundaries.
// Words are indexed verbatim: no stop-words are dropped and nothing is
// stemmed, so a query word matches exactly the words that were indexed.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
)

// Token represents a single normalised term and its word position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into lowercased Tokens numbered from zero.
func Tokenize(text string) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, isSeparator)
	tokens := make([]Token, 0, len(words))
	for pos, word := range words {
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
	}
	return tokens
}

// Terms returns only the terms of Tokenize(text), in order.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, tok.Term)
	}
	return terms
}

// Group collects the positions of every distinct term, in occurrence order.
func Group(tokens []Token) map[string]index.PostingList {
	termData := make(map[string]index.PostingList)
	for _, tok := range tokens {
		termData[tok.Term] = append(termData[tok.Term], uint32(tok.Position))
	}
	return termData
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
