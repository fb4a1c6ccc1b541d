// Package query defines the query tree handed from the parser to the passage
// ranker. Only term and near clauses can be ranked; boolean structure is
// representable so that it can be rejected up front.
package query

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

type Query interface {
	String() string
}

// TermQuery matches a single analysed term.
type TermQuery struct {
	Term string
}

func (q *TermQuery) String() string { return q.Term }

// NearQuery matches its clauses within Slop intervening positions of each
// other, in clause order when InOrder is set.
type NearQuery struct {
	Clauses []Query
	Slop    int
	InOrder bool
}

func (q *NearQuery) String() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		parts[i] = c.String()
	}
	ordered := "unordered"
	if q.InOrder {
		ordered = "ordered"
	}
	return fmt.Sprintf("near(%s, slop=%d, %s)", strings.Join(parts, " "), q.Slop, ordered)
}

// Occur is the role of a boolean clause.
type Occur int

const (
	Must Occur = iota
	Should
	MustNot
)

type BooleanClause struct {
	Query Query
	Occur Occur
}

type BooleanQuery struct {
	Clauses []BooleanClause
}

func (q *BooleanQuery) String() string {
	parts := make([]string, len(q.Clauses))
	for i, c := range q.Clauses {
		prefix := "+"
		switch c.Occur {
		case Should:
			prefix = ""
		case MustNot:
			prefix = "-"
		}
		parts[i] = prefix + c.Query.String()
	}
	return "bool(" + strings.Join(parts, " ") + ")"
}

// AsNear returns q as a near query when the whole tree is made of near and
// term clauses, and ErrUnsupportedQuery otherwise.
func AsNear(q Query) (*NearQuery, error) {
	near, ok := q.(*NearQuery)
	if !ok {
		return nil, fmt.Errorf("%w: expected a phrase/near query, got %T", apperrors.ErrUnsupportedQuery, q)
	}
	if err := validateNear(near); err != nil {
		return nil, err
	}
	return near, nil
}

func validateNear(q *NearQuery) error {
	if len(q.Clauses) == 0 {
		return fmt.Errorf("%w: near query without clauses", apperrors.ErrUnsupportedQuery)
	}
	if q.Slop < 0 {
		return fmt.Errorf("%w: negative slop %d", apperrors.ErrUnsupportedQuery, q.Slop)
	}
	for _, c := range q.Clauses {
		switch c := c.(type) {
		case *TermQuery:
			if c.Term == "" {
				return fmt.Errorf("%w: empty term", apperrors.ErrUnsupportedQuery)
			}
		case *NearQuery:
			if err := validateNear(c); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %T inside near query", apperrors.ErrUnsupportedQuery, c)
		}
	}
	return nil
}

// Terms lists the leaf terms of q in left-to-right clause order, duplicates
// included.
func Terms(q Query) []string {
	var out []string
	var walk func(Query)
	walk = func(q Query) {
		switch q := q.(type) {
		case *TermQuery:
			out = append(out, q.Term)
		case *NearQuery:
			for _, c := range q.Clauses {
				walk(c)
			}
		case *BooleanQuery:
			for _, c := range q.Clauses {
				if c.Occur != MustNot {
					walk(c.Query)
				}
			}
		}
	}
	walk(q)
	return out
}
