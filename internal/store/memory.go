package store

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

// Memory is a map-backed store, safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	docs map[uint32]Document
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[uint32]Document)}
}

func (m *Memory) Put(_ context.Context, doc Document) error {
	doc.Fields = cloneFields(doc.Fields)
	m.mu.Lock()
	m.docs[doc.Num] = doc
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, num uint32) (Document, error) {
	m.mu.RLock()
	doc, ok := m.docs[num]
	m.mu.RUnlock()
	if !ok {
		return Document{}, fmt.Errorf("%w: %d", apperrors.ErrDocumentNotFound, num)
	}
	doc.Fields = cloneFields(doc.Fields)
	return doc, nil
}

func (m *Memory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

func (m *Memory) Close() error { return nil }
