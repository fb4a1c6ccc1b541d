// Package store keeps the stored (display) fields of indexed documents.
// Engines are selected by name: an in-process map, a zstd-compressed bolt
// file, or a postgres table.
package store

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/resilience"
)

// Document is a stored document: its internal number, the caller's id and
// the raw text of every stored field.
type Document struct {
	Num    uint32            `json:"num"`
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

type DocumentStore interface {
	Put(ctx context.Context, doc Document) error
	// Get returns ErrDocumentNotFound for unknown numbers.
	Get(ctx context.Context, num uint32) (Document, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open builds the engine named by cfg.Engine. An empty engine means memory.
func Open(ctx context.Context, cfg config.StoreConfig, pg config.PostgresConfig) (DocumentStore, error) {
	switch cfg.Engine {
	case "", "memory":
		return NewMemory(), nil
	case "bolt":
		return OpenBolt(cfg.Path, cfg.CompressionLevel)
	case "postgres":
		return OpenPostgres(ctx, pg, resilience.DefaultRetryConfig())
	default:
		return nil, fmt.Errorf("unsupported store engine %q", cfg.Engine)
	}
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
