package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

// maxTxnRetries bounds optimistic retries on write conflicts.
const maxTxnRetries = 64

// Snapshot is one child document returned by Children.
type Snapshot struct {
	Key   string
	Value json.RawMessage
}

// Decode unmarshals the snapshot value into dest.
func (s Snapshot) Decode(dest any) error {
	return json.Unmarshal(s.Value, dest)
}

// Get decodes the document at path into dest. Reports false when the path holds no document.
func (s *Store) Get(ctx context.Context, path string, dest any) (bool, error) {
	key, err := validatePath(path)
	if err != nil {
		return false, err
	}

	var found bool
	err = s.run(ctx, "get", func(context.Context) error {
		return s.db.View(func(txn *badger.Txn) error {
			var err error
			found, err = get(txn, key, dest)
			return err
		})
	})
	return found, err
}

// Exists reports whether a document is stored at path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	return s.Get(ctx, path, nil)
}

// Set replaces the document at path.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	key, err := validatePath(path)
	if err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}

	return s.run(ctx, "set", func(ctx context.Context) error {
		return s.update(ctx, func(txn *badger.Txn) error {
			return txn.Set(key, data)
		})
	})
}

// Merge updates the named top-level fields of the document at path, leaving
// other fields untouched. A nil field value deletes that field. The document
// is created if it does not exist.
func (s *Store) Merge(ctx context.Context, path string, fields map[string]any) error {
	key, err := validatePath(path)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	encoded := make(map[string]json.RawMessage, len(fields))
	for name, v := range fields {
		if v == nil {
			encoded[name] = nil
			continue
		}
		data, err := encode(v)
		if err != nil {
			return fmt.Errorf("merge field %q: %w", name, err)
		}
		encoded[name] = data
	}

	return s.run(ctx, "merge", func(ctx context.Context) error {
		return s.update(ctx, func(txn *badger.Txn) error {
			doc := map[string]json.RawMessage{}
			if _, err := get(txn, key, &doc); err != nil {
				return fmt.Errorf("read document for merge: %w", err)
			}
			for name, data := range encoded {
				if data == nil {
					delete(doc, name)
					continue
				}
				doc[name] = data
			}
			return set(txn, key, doc)
		})
	})
}

// Remove deletes the document at path together with every document below it.
func (s *Store) Remove(ctx context.Context, path string) error {
	key, err := validatePath(path)
	if err != nil {
		return err
	}

	return s.run(ctx, "remove", func(ctx context.Context) error {
		return s.update(ctx, func(txn *badger.Txn) error {
			return removeTree(ctx, txn, key)
		})
	})
}

// NewKey returns a fresh push key without writing anything.
func (s *Store) NewKey() (string, error) {
	return s.push.Next()
}

// Push stores value under a new push key below path and returns the key.
func (s *Store) Push(ctx context.Context, path string, value any) (string, error) {
	if _, err := validatePath(path); err != nil {
		return "", err
	}
	key, err := s.NewKey()
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "generate push key")
	}
	if err := s.Set(ctx, path+"/"+key, value); err != nil {
		return "", err
	}
	return key, nil
}

// Children returns the documents exactly one segment below path, ordered by key.
// A missing collection yields an empty slice.
func (s *Store) Children(ctx context.Context, path string) ([]Snapshot, error) {
	key, err := validatePath(path)
	if err != nil {
		return nil, err
	}
	prefix := childPrefix(key)

	var out []Snapshot
	err = s.run(ctx, "children", func(ctx context.Context) error {
		return s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := it.Item()
				rest := item.Key()[len(prefix):]
				if bytes.IndexByte(rest, '/') >= 0 {
					continue
				}
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				out = append(out, Snapshot{Key: string(rest), Value: val})
			}
			return nil
		})
	})
	return out, err
}

// Count returns the number of distinct child nodes below path. A child node
// counts once whether it is a document, a subtree, or both.
func (s *Store) Count(ctx context.Context, path string) (int, error) {
	key, err := validatePath(path)
	if err != nil {
		return 0, err
	}
	prefix := childPrefix(key)

	var n int
	err = s.run(ctx, "count", func(ctx context.Context) error {
		return s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()

			var last []byte
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				rest := it.Item().Key()[len(prefix):]
				if i := bytes.IndexByte(rest, '/'); i >= 0 {
					rest = rest[:i]
				}
				if last != nil && bytes.Equal(last, rest) {
					continue
				}
				last = append(last[:0], rest...)
				n++
			}
			return nil
		})
	})
	return n, err
}

// UpdateMulti applies every path in updates atomically: either all writes
// land or none do. A nil value removes the path and its subtree. Paths may
// not overlap (one being an ancestor of another).
func (s *Store) UpdateMulti(ctx context.Context, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	paths := make([]string, 0, len(updates))
	for p := range updates {
		if _, err := validatePath(p); err != nil {
			return err
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		for i := strings.IndexByte(p, '/'); i >= 0; {
			if _, ok := updates[p[:i]]; ok {
				return domainerrors.Validationf("overlapping paths in multi-path update: %s and %s", p[:i], p)
			}
			next := strings.IndexByte(p[i+1:], '/')
			if next < 0 {
				break
			}
			i += next + 1
		}
	}

	encoded := make([][]byte, len(paths))
	for i, p := range paths {
		if updates[p] == nil {
			continue
		}
		data, err := encode(updates[p])
		if err != nil {
			return fmt.Errorf("update %s: %w", p, err)
		}
		encoded[i] = data
	}

	return s.run(ctx, "update_multi", func(ctx context.Context) error {
		return s.update(ctx, func(txn *badger.Txn) error {
			for i, p := range paths {
				if encoded[i] == nil {
					if err := removeTree(ctx, txn, []byte(p)); err != nil {
						return err
					}
					continue
				}
				if err := txn.Set([]byte(p), encoded[i]); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// TransactionFunc computes the next value of a document from its current
// encoded value (nil when absent). Returning a nil value removes the
// document; returning ErrAbort leaves it untouched.
type TransactionFunc func(current json.RawMessage) (any, error)

// Transaction runs an optimistic read-modify-write on a single path. The
// function may be invoked more than once if a concurrent writer commits
// first. Reports whether a new value was committed.
func (s *Store) Transaction(ctx context.Context, path string, fn TransactionFunc) (bool, error) {
	key, err := validatePath(path)
	if err != nil {
		return false, err
	}

	committed := false
	err = s.run(ctx, "transaction", func(ctx context.Context) error {
		err := s.update(ctx, func(txn *badger.Txn) error {
			committed = false
			var current json.RawMessage
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if current, err = item.ValueCopy(nil); err != nil {
					return err
				}
			}

			next, err := fn(current)
			if err != nil {
				return err
			}
			committed = true
			if next == nil {
				return txn.Delete(key)
			}
			return set(txn, key, next)
		})
		if errors.Is(err, ErrAbort) {
			committed = false
			return nil
		}
		return err
	})
	return committed, err
}

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			if err := fn(txn); err != nil {
				return err
			}
			// Do not commit past the deadline.
			return ctx.Err()
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt+1 >= maxTxnRetries {
			return ErrTooManyRetries.WithCause(err)
		}

		backoff := time.Duration(min(attempt+1, 10))*time.Millisecond + rand.N(time.Millisecond)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// removeTree deletes key and every key below it within txn.
func removeTree(ctx context.Context, txn *badger.Txn, key []byte) error {
	prefix := childPrefix(key)
	keys := [][]byte{key}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			it.Close()
			return err
		}
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
