package query

import (
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func near(slop int, inOrder bool, clauses ...Query) *NearQuery {
	return &NearQuery{Clauses: clauses, Slop: slop, InOrder: inOrder}
}

func term(t string) *TermQuery { return &TermQuery{Term: t} }

func TestAsNearAcceptsNestedNear(t *testing.T) {
	q := near(10, false, term("lazy"), near(0, true, term("brown"), term("fox")))
	got, err := AsNear(q)
	require.NoError(t, err)
	assert.Same(t, q, got)
	assert.Equal(t, []string{"lazy", "brown", "fox"}, Terms(q))
}

func TestAsNearRejects(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"bare term", term("fox")},
		{"boolean", &BooleanQuery{Clauses: []BooleanClause{{Query: term("fox"), Occur: Must}}}},
		{"boolean inside near", near(5, false, term("fox"), &BooleanQuery{})},
		{"empty near", near(5, false)},
		{"negative slop", near(-1, false, term("fox"))},
		{"empty term", near(1, false, term(""))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AsNear(tt.q)
			assert.ErrorIs(t, err, apperrors.ErrUnsupportedQuery)
		})
	}
}

func TestTermsSkipsExcluded(t *testing.T) {
	q := &BooleanQuery{Clauses: []BooleanClause{
		{Query: term("fox"), Occur: Must},
		{Query: term("dog"), Occur: MustNot},
		{Query: term("den"), Occur: Should},
	}}
	assert.Equal(t, []string{"fox", "den"}, Terms(q))
	assert.Equal(t, "bool(+fox -dog den)", q.String())
}
