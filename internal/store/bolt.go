package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/klauspost/compress/zstd"

	apperrors "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/errors"
)

var documentsBucket = []byte("documents")

// Bolt stores each document as zstd-compressed JSON under its big-endian
// document number.
type Bolt struct {
	db  *bolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// OpenBolt opens or creates the bolt file at path. level is a zstd level
// (1 fastest through 22 smallest); zero picks the default.
func OpenBolt(path string, level int) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: bolt store needs a path", apperrors.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents bucket: %w", err)
	}

	encLevel := zstd.SpeedDefault
	if level > 0 {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Bolt{db: db, enc: enc, dec: dec}, nil
}

func docKey(num uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], num)
	return k[:]
}

func (b *Bolt) Put(_ context.Context, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %d: %w", doc.Num, err)
	}
	value := b.enc.EncodeAll(raw, nil)
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(documentsBucket).Put(docKey(doc.Num), value)
	})
}

func (b *Bolt) Get(_ context.Context, num uint32) (Document, error) {
	var raw []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(documentsBucket).Get(docKey(num))
		if value == nil {
			return fmt.Errorf("%w: %d", apperrors.ErrDocumentNotFound, num)
		}
		var err error
		raw, err = b.dec.DecodeAll(value, nil)
		return err
	})
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding document %d: %w", num, err)
	}
	return doc, nil
}

func (b *Bolt) Count(context.Context) (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(documentsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (b *Bolt) Close() error {
	b.enc.Close()
	b.dec.Close()
	return b.db.Close()
}
