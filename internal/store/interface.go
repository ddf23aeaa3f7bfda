// Package store defines the persistence interface for the Photogram server.
package store

import (
	"context"
)

// Database is the capability surface services depend on: single-path reads
// and writes, atomic multi-path updates, and single-path transactions.
type Database interface {
	Get(ctx context.Context, path string, dest any) (bool, error)
	Exists(ctx context.Context, path string) (bool, error)
	Set(ctx context.Context, path string, value any) error
	Merge(ctx context.Context, path string, fields map[string]any) error
	Remove(ctx context.Context, path string) error

	NewKey() (string, error)
	Push(ctx context.Context, path string, value any) (string, error)

	Children(ctx context.Context, path string) ([]Snapshot, error)
	Count(ctx context.Context, path string) (int, error)

	UpdateMulti(ctx context.Context, updates map[string]any) error
	Transaction(ctx context.Context, path string, fn TransactionFunc) (bool, error)
}

// Ensure Store implements Database.
var _ Database = (*Store)(nil)
