// Package keylock serializes work on the same logical key within the process.
package keylock

import (
	"context"
	"hash/maphash"
)

// DefaultStripes is the stripe count used by New when n <= 0.
const DefaultStripes = 256

// Striped is a fixed set of locks addressed by key hash. Two keys may share
// a stripe, so holders must never take a second lock while holding one.
type Striped struct {
	seed    maphash.Seed
	stripes []chan struct{}
}

// New creates a Striped lock with n stripes.
func New(n int) *Striped {
	if n <= 0 {
		n = DefaultStripes
	}
	stripes := make([]chan struct{}, n)
	for i := range stripes {
		stripes[i] = make(chan struct{}, 1)
	}
	return &Striped{
		seed:    maphash.MakeSeed(),
		stripes: stripes,
	}
}

// Key joins parts into a single lock key.
func Key(parts ...string) string {
	n := len(parts)
	for _, p := range parts {
		n += len(p)
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, 0)
		}
		b = append(b, p...)
	}
	return string(b)
}

// Lock blocks until the stripe for key is acquired or ctx is done.
// The returned function releases the lock and must be called exactly once.
func (s *Striped) Lock(ctx context.Context, key string) (func(), error) {
	ch := s.stripe(key)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Striped) stripe(key string) chan struct{} {
	h := maphash.String(s.seed, key)
	return s.stripes[h%uint64(len(s.stripes))]
}
