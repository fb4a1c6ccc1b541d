package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/resilience"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	num    BIGINT PRIMARY KEY,
	id     TEXT   NOT NULL,
	fields JSONB  NOT NULL
)`

// Postgres keeps documents in the documents table.
type Postgres struct {
	client *postgres.Client
}

func OpenPostgres(ctx context.Context, cfg config.PostgresConfig, retry resilience.RetryConfig) (*Postgres, error) {
	client, err := postgres.New(ctx, cfg, retry)
	if err != nil {
		return nil, err
	}
	if err := client.Migrate(ctx, createDocumentsTable); err != nil {
		client.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}
	return &Postgres{client: client}, nil
}

func (p *Postgres) Put(ctx context.Context, doc Document) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields of document %d: %w", doc.Num, err)
	}
	return p.client.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (num, id, fields) VALUES ($1, $2, $3)
			 ON CONFLICT (num) DO UPDATE SET id = EXCLUDED.id, fields = EXCLUDED.fields`,
			int64(doc.Num), doc.ID, fields)
		if err != nil {
			return fmt.Errorf("upserting document %d: %w", doc.Num, err)
		}
		return nil
	})
}

func (p *Postgres) Get(ctx context.Context, num uint32) (Document, error) {
	var (
		id     string
		fields []byte
	)
	err := p.client.DB.QueryRowContext(ctx,
		`SELECT id, fields FROM documents WHERE num = $1`, int64(num)).Scan(&id, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %d", apperrors.ErrDocumentNotFound, num)
	}
	if err != nil {
		return Document{}, fmt.Errorf("loading document %d: %w", num, err)
	}
	doc := Document{Num: num, ID: id}
	if err := json.Unmarshal(fields, &doc.Fields); err != nil {
		return Document{}, fmt.Errorf("decoding fields of document %d: %w", num, err)
	}
	return doc, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.client.DB.QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

func (p *Postgres) Close() error {
	return p.client.Close()
}
