package span

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(docs map[uint32]string) *index.MemoryIndex {
	idx := index.NewMemoryIndex()
	for id, text := range docs {
		idx.AddField(id, "body", tokenizer.Tokenize(text), true)
	}
	return idx
}

func terms(ts ...string) []query.Query {
	out := make([]query.Query, len(ts))
	for i, t := range ts {
		out[i] = &query.TermQuery{Term: t}
	}
	return out
}

func TestFindExactPhrase(t *testing.T) {
	idx := buildIndex(map[uint32]string{
		1: "quick brown fox",
		2: "brown quick fox",
		3: "fox quick brown fox",
	})
	q := &query.NearQuery{Clauses: terms("quick", "brown"), Slop: 0, InOrder: true}

	matches, err := Find(context.Background(), idx, "body", q)
	require.NoError(t, err)
	assert.Equal(t, []Match{
		{DocID: 1, Start: 0, End: 1},
		{DocID: 3, Start: 1, End: 2},
	}, matches)
}

func TestFindOrderedWithSlop(t *testing.T) {
	idx := buildIndex(map[uint32]string{
		1: "lazy old brown dog near fox",
	})
	tight := &query.NearQuery{Clauses: terms("lazi", "fox"), Slop: 3, InOrder: true}
	matches, err := Find(context.Background(), idx, "body", tight)
	require.NoError(t, err)
	assert.Empty(t, matches)

	loose := &query.NearQuery{Clauses: terms("lazi", "fox"), Slop: 4, InOrder: true}
	matches, err = Find(context.Background(), idx, "body", loose)
	require.NoError(t, err)
	assert.Equal(t, []Match{{DocID: 1, Start: 0, End: 5}}, matches)
}

func TestFindUnordered(t *testing.T) {
	idx := buildIndex(map[uint32]string{
		1: "fox jumped lazy",
		2: "lazy fox",
	})
	q := &query.NearQuery{Clauses: terms("lazi", "fox"), Slop: 1, InOrder: false}
	matches, err := Find(context.Background(), idx, "body", q)
	require.NoError(t, err)
	assert.Equal(t, []Match{
		{DocID: 1, Start: 0, End: 2},
		{DocID: 2, Start: 0, End: 1},
	}, matches)
}

func TestFindNestedPhraseInsideNear(t *testing.T) {
	idx := buildIndex(map[uint32]string{
		1: "brown fox seen by lazy dog",
		2: "fox brown seen by lazy dog",
	})
	phrase := &query.NearQuery{Clauses: terms("brown", "fox"), Slop: 0, InOrder: true}
	q := &query.NearQuery{
		Clauses: []query.Query{phrase, &query.TermQuery{Term: "dog"}},
		Slop:    5,
	}
	matches, err := Find(context.Background(), idx, "body", q)
	require.NoError(t, err)
	assert.Equal(t, []Match{{DocID: 1, Start: 0, End: 4}}, matches)
}

func TestFindRepeatedTermNeedsTwoOccurrences(t *testing.T) {
	idx := buildIndex(map[uint32]string{
		1: "buffalo",
		2: "buffalo buffalo",
	})
	q := &query.NearQuery{Clauses: terms("buffalo", "buffalo"), Slop: 0}
	matches, err := Find(context.Background(), idx, "body", q)
	require.NoError(t, err)
	assert.Equal(t, []Match{{DocID: 2, Start: 0, End: 1}}, matches)
}

func TestFindCancelled(t *testing.T) {
	idx := buildIndex(map[uint32]string{1: "quick brown fox"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Find(ctx, idx, "body", &query.NearQuery{Clauses: terms("fox")})
	assert.ErrorIs(t, err, context.Canceled)
}
