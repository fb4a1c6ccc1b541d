// Package span finds phrase/near matches in the positional index. A match is
// the inclusive position range [Start, End] covered by one combination of
// clause occurrences that satisfies the query's slop and ordering.
package span

import (
	"context"
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/query"
	"github.com/RoaringBitmap/roaring/v2"
)

// Index is the slice of the positional index span matching needs.
type Index interface {
	Intersect(field string, terms []string) *roaring.Bitmap
	Positions(docID uint32, field, term string) []int
}

type Match struct {
	DocID uint32
	Start int
	End   int
}

type span struct {
	start, end int
}

func (s span) length() int { return s.end - s.start + 1 }

func (s span) overlaps(o span) bool { return s.start <= o.end && o.start <= s.end }

// Find returns every match of q in field, ordered by document, then start,
// then end. Only documents containing all leaf terms are inspected.
func Find(ctx context.Context, idx Index, field string, q *query.NearQuery) ([]Match, error) {
	terms := unique(query.Terms(q))
	docs := idx.Intersect(field, terms)
	var matches []Match
	it := docs.Iterator()
	for it.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("span matching interrupted: %w", err)
		}
		docID := it.Next()
		positions := func(term string) []int { return idx.Positions(docID, field, term) }
		for _, s := range spansOf(q, positions) {
			matches = append(matches, Match{DocID: docID, Start: s.start, End: s.end})
		}
	}
	return matches, nil
}

func spansOf(q query.Query, positions func(string) []int) []span {
	switch q := q.(type) {
	case *query.TermQuery:
		ps := positions(q.Term)
		out := make([]span, len(ps))
		for i, p := range ps {
			out[i] = span{p, p}
		}
		return out
	case *query.NearQuery:
		children := make([][]span, len(q.Clauses))
		for i, c := range q.Clauses {
			children[i] = spansOf(c, positions)
			if len(children[i]) == 0 {
				return nil
			}
		}
		var out []span
		if q.InOrder {
			out = ordered(children, q.Slop)
		} else {
			out = unordered(children, q.Slop)
		}
		return normalize(out)
	default:
		return nil
	}
}

// ordered anchors on each span of the first clause and greedily takes the
// earliest following span of every later clause; the summed gaps must not
// exceed slop.
func ordered(children [][]span, slop int) []span {
	var out []span
	for _, first := range children[0] {
		cur := first
		gaps := 0
		ok := true
		for _, next := range children[1:] {
			i := sort.Search(len(next), func(i int) bool { return next[i].start > cur.end })
			if i == len(next) {
				ok = false
				break
			}
			gaps += next[i].start - cur.end - 1
			cur = next[i]
		}
		if ok && gaps <= slop {
			out = append(out, span{first.start, cur.end})
		}
	}
	return out
}

// unordered anchors on every span of every clause as the leftmost span and
// picks, for each other clause, the first non-overlapping span starting at or
// after the anchor. Uncovered positions inside the match count against slop.
func unordered(children [][]span, slop int) []span {
	var out []span
	for ai, anchors := range children {
		for _, anchor := range anchors {
			chosen := []span{anchor}
			end := anchor.end
			covered := anchor.length()
			ok := true
			for ci, candidates := range children {
				if ci == ai {
					continue
				}
				pick, found := firstFree(candidates, anchor.start, chosen)
				if !found {
					ok = false
					break
				}
				chosen = append(chosen, pick)
				covered += pick.length()
				end = max(end, pick.end)
			}
			if !ok {
				continue
			}
			if (end-anchor.start+1)-covered <= slop {
				out = append(out, span{anchor.start, end})
			}
		}
	}
	return out
}

func firstFree(candidates []span, from int, chosen []span) (span, bool) {
	i := sort.Search(len(candidates), func(i int) bool { return candidates[i].start >= from })
	for ; i < len(candidates); i++ {
		free := true
		for _, c := range chosen {
			if candidates[i].overlaps(c) {
				free = false
				break
			}
		}
		if free {
			return candidates[i], true
		}
	}
	return span{}, false
}

func normalize(spans []span) []span {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})
	out := spans[:1]
	for _, s := range spans[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}

func unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
