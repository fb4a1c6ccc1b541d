// Package tokenizer provides text analysis for the passage index. It
// lower-cases input, splits on non-alphanumeric boundaries, removes
// stop-words, applies the snowball English stemmer, and records each kept
// token's position and byte offsets.
package tokenizer

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

// AnnotationPrefix marks synthetic named-entity tokens (for example
// "NE_PERSON") that annotators splice into the text. They are indexed
// verbatim at the position of the token that follows them.
const AnnotationPrefix = "ne_"

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {}, "how": {},
	"did": {}, "does": {}, "why": {},
}

// Token is a single normalised term, its position among kept tokens, and the
// byte range [Start, End) of the source word.
type Token struct {
	Term     string
	Position int
	Start    int
	End      int
}

// IsAnnotation reports whether term is a named-entity annotation, in either
// case.
func IsAnnotation(term string) bool {
	return len(term) > len(AnnotationPrefix) && strings.EqualFold(term[:len(AnnotationPrefix)], AnnotationPrefix)
}

// Tokenize breaks text into stemmed, lowercased Tokens with stop-words
// removed.
func Tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/6)
	pos := 0
	emit := func(start, end int) {
		word := strings.ToLower(text[start:end])
		if IsAnnotation(word) {
			tokens = append(tokens, Token{Term: word, Position: pos, Start: start, End: end})
			return
		}
		if len(word) < 2 {
			return
		}
		if _, isStop := stopWords[word]; isStop {
			return
		}
		stemmed := snowballeng.Stem(word, false)
		if stemmed == "" {
			return
		}
		tokens = append(tokens, Token{Term: stemmed, Position: pos, Start: start, End: end})
		pos++
	}

	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			emit(start, i)
			start = -1
		}
	}
	if start >= 0 {
		emit(start, len(text))
	}
	return tokens
}

// Analyze returns only the terms of Tokenize, for query text.
func Analyze(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, t := range tokens {
		terms[i] = t.Term
	}
	return terms
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
