// Package storage provides the durable draft.Slot backends: an embedded
// badger database for the command line client and Redis for drafts hosted
// by the server on behalf of browser clients.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/iliyamo/car-rental-reservation/internal/draft"
)

// BadgerSlot keeps the serialized draft under a single key of an embedded
// badger database.
type BadgerSlot struct {
	db  *badger.DB
	key []byte
}

// OpenBadgerSlot opens (or creates) the badger directory dir.  An empty
// dir opens an in-memory database.
func OpenBadgerSlot(dir string) (*BadgerSlot, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger slot: %w", err)
	}
	return NewBadgerSlot(db, draft.SlotKey), nil
}

// NewBadgerSlot wraps an already open database.
func NewBadgerSlot(db *badger.DB, key string) *BadgerSlot {
	return &BadgerSlot{db: db, key: []byte(key)}
}

func (s *BadgerSlot) Load(_ context.Context) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, draft.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read draft slot: %w", err)
	}
	return out, nil
}

func (s *BadgerSlot) Save(_ context.Context, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
	if err != nil {
		return fmt.Errorf("write draft slot: %w", err)
	}
	return nil
}

func (s *BadgerSlot) Clear(_ context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key)
	})
	if err != nil {
		return fmt.Errorf("clear draft slot: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *BadgerSlot) Close() error { return s.db.Close() }
