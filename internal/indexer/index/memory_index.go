// Package index is an in-memory positional index. For every field it keeps a
// roaring bitmap of documents per term and a term vector (positions and
// optional offsets) per document.
package index

import (
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer/tokenizer"
	"github.com/RoaringBitmap/roaring/v2"
)

type fieldIndex struct {
	docs        map[string]*roaring.Bitmap
	vectors     map[uint32][]VectorEntry
	totalTokens int64
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{
		docs:    make(map[string]*roaring.Bitmap),
		vectors: make(map[uint32][]VectorEntry),
	}
}

type MemoryIndex struct {
	mu     sync.RWMutex
	fields map[string]*fieldIndex
	all    *roaring.Bitmap
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		fields: make(map[string]*fieldIndex),
		all:    roaring.New(),
	}
}

// AddField indexes the tokens of one field of docID, replacing whatever was
// indexed for that pair before. Offsets are kept only when withOffsets is
// set.
func (m *MemoryIndex) AddField(docID uint32, field string, tokens []tokenizer.Token, withOffsets bool) {
	entries := buildVector(tokens, withOffsets)

	m.mu.Lock()
	defer m.mu.Unlock()
	fi, ok := m.fields[field]
	if !ok {
		fi = newFieldIndex()
		m.fields[field] = fi
	}
	fi.remove(docID)
	for _, e := range entries {
		bm, exists := fi.docs[e.Term]
		if !exists {
			bm = roaring.New()
			fi.docs[e.Term] = bm
		}
		bm.Add(docID)
	}
	fi.vectors[docID] = entries
	fi.totalTokens += int64(len(tokens))
	m.all.Add(docID)
}

// RemoveDocument drops docID from every field.
func (m *MemoryIndex) RemoveDocument(docID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fi := range m.fields {
		fi.remove(docID)
	}
	m.all.Remove(docID)
}

func (fi *fieldIndex) remove(docID uint32) {
	old, ok := fi.vectors[docID]
	if !ok {
		return
	}
	for _, e := range old {
		if bm, exists := fi.docs[e.Term]; exists {
			bm.Remove(docID)
			if bm.IsEmpty() {
				delete(fi.docs, e.Term)
			}
		}
		fi.totalTokens -= int64(e.Frequency)
	}
	delete(fi.vectors, docID)
}

// DocFreq returns the number of documents whose field contains term.
func (m *MemoryIndex) DocFreq(field, term string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fi, ok := m.fields[field]
	if !ok {
		return 0
	}
	bm, ok := fi.docs[term]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Docs returns a copy of the document bitmap for term; an empty bitmap when
// the term is absent.
func (m *MemoryIndex) Docs(field, term string) *roaring.Bitmap {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if fi, ok := m.fields[field]; ok {
		if bm, ok := fi.docs[term]; ok {
			return bm.Clone()
		}
	}
	return roaring.New()
}

// Intersect returns the documents whose field contains every term.
func (m *MemoryIndex) Intersect(field string, terms []string) *roaring.Bitmap {
	if len(terms) == 0 {
		return roaring.New()
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	fi, ok := m.fields[field]
	if !ok {
		return roaring.New()
	}
	bitmaps := make([]*roaring.Bitmap, 0, len(terms))
	for _, term := range terms {
		bm, ok := fi.docs[term]
		if !ok {
			return roaring.New()
		}
		bitmaps = append(bitmaps, bm)
	}
	return roaring.FastAnd(bitmaps...)
}

// Positions returns the sorted positions of term in docID's field.
func (m *MemoryIndex) Positions(docID uint32, field, term string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fi, ok := m.fields[field]
	if !ok {
		return nil
	}
	vector := fi.vectors[docID]
	i := sort.Search(len(vector), func(i int) bool { return vector[i].Term >= term })
	if i < len(vector) && vector[i].Term == term {
		return vector[i].Positions
	}
	return nil
}

// TermVector returns docID's term vector for field, sorted by term. The
// returned entries are shared with the index and must not be modified.
func (m *MemoryIndex) TermVector(docID uint32, field string) ([]VectorEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fi, ok := m.fields[field]
	if !ok {
		return nil, false
	}
	vector, ok := fi.vectors[docID]
	return vector, ok
}

// Postings lists every document occurrence of term, ordered by DocID.
func (m *MemoryIndex) Postings(field, term string) []Posting {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fi, ok := m.fields[field]
	if !ok {
		return nil
	}
	bm, ok := fi.docs[term]
	if !ok {
		return nil
	}
	result := make([]Posting, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		docID := it.Next()
		vector := fi.vectors[docID]
		i := sort.Search(len(vector), func(i int) bool { return vector[i].Term >= term })
		if i < len(vector) && vector[i].Term == term {
			e := vector[i]
			result = append(result, Posting{
				DocID:     docID,
				Frequency: e.Frequency,
				Positions: e.Positions,
				Offsets:   e.Offsets,
			})
		}
	}
	return result
}

func (m *MemoryIndex) DocCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.all.GetCardinality()
}

// Stats reports per-field statistics, sorted by field name.
func (m *MemoryIndex) Stats() []FieldStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make([]FieldStats, 0, len(m.fields))
	for name, fi := range m.fields {
		stats = append(stats, FieldStats{
			Field:       name,
			Docs:        uint64(len(fi.vectors)),
			Terms:       len(fi.docs),
			TotalTokens: fi.totalTokens,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Field < stats[j].Field })
	return stats
}

func buildVector(tokens []tokenizer.Token, withOffsets bool) []VectorEntry {
	byTerm := make(map[string]*VectorEntry)
	for _, tok := range tokens {
		e, exists := byTerm[tok.Term]
		if !exists {
			e = &VectorEntry{Term: tok.Term, Positions: make([]int, 0, 2)}
			byTerm[tok.Term] = e
		}
		e.Frequency++
		e.Positions = append(e.Positions, tok.Position)
		if withOffsets {
			e.Offsets = append(e.Offsets, Offset{Start: tok.Start, End: tok.End})
		}
	}
	entries := make([]VectorEntry, 0, len(byTerm))
	for _, e := range byTerm {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}
