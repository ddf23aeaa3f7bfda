package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/photogram/photogram-server/internal/id"
)

// DefaultTimeout bounds a single store operation when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Observer receives one callback per completed store operation.
// It is how the metrics package learns about store latency and failures.
type Observer func(op string, took time.Duration, err error)

// Options configures a Store.
type Options struct {
	// InMemory keeps all data in memory. Path is ignored.
	InMemory bool

	// Timeout bounds each operation. A deadline surfaces as a TIMEOUT domain error.
	Timeout time.Duration

	// Observer is optional.
	Observer Observer
}

// Store is a path-addressed document tree on top of a Badger database.
//
// Every document lives under its full slash-separated path (for example
// "comments/-Nx1abc"). Children are the documents exactly one segment below
// a path, iterated in key order. Push keys are time-ordered, so children of
// append-only collections come back in creation order.
type Store struct {
	db       *badger.DB
	logger   *slog.Logger
	timeout  time.Duration
	push     *id.PushGenerator
	observer Observer

	closeOnce sync.Once
	closeErr  error
}

// New opens (or creates) a Store at path.
func New(path string, logger *slog.Logger, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	s := &Store{
		db:       db,
		logger:   logger,
		timeout:  timeout,
		push:     id.NewPushGenerator(),
		observer: opts.Observer,
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path, "in_memory", opts.InMemory)
	}

	return s, nil
}

// Close gracefully closes the database connection. Later calls are no-ops.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.logger != nil {
			s.logger.Info("Closing database connection")
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// Ping reports whether the database accepts reads.
func (s *Store) Ping(ctx context.Context) error {
	return s.run(ctx, "ping", func(ctx context.Context) error {
		return s.db.View(func(txn *badger.Txn) error {
			_, err := txn.Get([]byte(rootMarker))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		})
	})
}

// rootMarker is a key no valid path can produce; Ping reads it.
const rootMarker = "\x00ping"

// run executes op under the store's timeout and classifies its error.
func (s *Store) run(ctx context.Context, name string, op func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := ctx.Err()
	if err == nil {
		err = op(ctx)
	}
	err = classify(name, err)

	if s.observer != nil {
		s.observer(name, time.Since(start), err)
	}
	return err
}

// get reads and decodes the document at key. Reports false if missing.
func get(txn *badger.Txn, key []byte, dest any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dest == nil {
		return true, nil
	}
	return true, item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// set encodes value and writes it at key.
func set(txn *badger.Txn, key []byte, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func encode(value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return data, nil
}
