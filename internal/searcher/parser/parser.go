// Package parser turns question text into a query tree. Plain words become
// one near query over all analysed terms; "quoted phrases" become exact
// ordered sub-queries, optionally loosened with a ~N slop suffix. Upper-case
// AND, OR and NOT produce a boolean query, which the passage ranker rejects.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

// Options set the slop and ordering of the top-level near query.
type Options struct {
	Slop    int
	InOrder bool
}

type unitKind int

const (
	unitWord unitKind = iota
	unitPhrase
	unitOperator
)

type unit struct {
	kind unitKind
	text string
	slop int
}

func Parse(raw string, opts Options) (query.Query, error) {
	units, err := lex(raw)
	if err != nil {
		return nil, err
	}

	var (
		clauses    []query.BooleanClause
		boolean    bool
		anyOr      bool
		negateNext bool
	)
	for _, u := range units {
		if u.kind == unitOperator {
			boolean = true
			switch u.text {
			case "OR":
				anyOr = true
			case "NOT":
				negateNext = true
			}
			continue
		}
		occur := query.Must
		if negateNext {
			occur = query.MustNot
			negateNext = false
		}
		for _, q := range build(u) {
			clauses = append(clauses, query.BooleanClause{Query: q, Occur: occur})
		}
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: query %q has no searchable terms", apperrors.ErrInvalidInput, raw)
	}

	if boolean {
		if anyOr {
			for i := range clauses {
				if clauses[i].Occur == query.Must {
					clauses[i].Occur = query.Should
				}
			}
		}
		return &query.BooleanQuery{Clauses: clauses}, nil
	}

	if len(clauses) == 1 {
		if near, ok := clauses[0].Query.(*query.NearQuery); ok {
			return near, nil
		}
	}
	top := &query.NearQuery{Slop: opts.Slop, InOrder: opts.InOrder}
	for _, c := range clauses {
		top.Clauses = append(top.Clauses, c.Query)
	}
	return top, nil
}

// build analyses one unit. A word can expand to several terms; a phrase is
// a single ordered near query unless it reduces to one term.
func build(u unit) []query.Query {
	terms := tokenizer.Analyze(u.text)
	if len(terms) == 0 {
		return nil
	}
	leaves := make([]query.Query, len(terms))
	for i, t := range terms {
		leaves[i] = &query.TermQuery{Term: t}
	}
	if u.kind != unitPhrase || len(leaves) == 1 {
		return leaves
	}
	return []query.Query{&query.NearQuery{Clauses: leaves, Slop: u.slop, InOrder: true}}
}

// lex splits raw into words, phrases and operators. It walks runes, so
// multi-byte letters never split a word.
func lex(raw string) ([]unit, error) {
	var units []unit
	i := 0
	for i < len(raw) {
		r, size := utf8.DecodeRuneInString(raw[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '"':
			end := strings.IndexByte(raw[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated phrase in %q", apperrors.ErrInvalidInput, raw)
			}
			u := unit{kind: unitPhrase, text: raw[i+1 : i+1+end]}
			i += end + 2
			if i < len(raw) && raw[i] == '~' {
				j := i + 1
				for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
					j++
				}
				slop, err := strconv.Atoi(raw[i+1 : j])
				if err != nil {
					return nil, fmt.Errorf("%w: bad phrase slop in %q", apperrors.ErrInvalidInput, raw)
				}
				u.slop = slop
				i = j
			}
			units = append(units, u)
		default:
			j := i + size
			for j < len(raw) {
				r, n := utf8.DecodeRuneInString(raw[j:])
				if r == '"' || unicode.IsSpace(r) {
					break
				}
				j += n
			}
			word := raw[i:j]
			i = j
			switch word {
			case "AND", "OR", "NOT":
				units = append(units, unit{kind: unitOperator, text: word})
			default:
				units = append(units, unit{kind: unitWord, text: word})
			}
		}
	}
	return units, nil
}
