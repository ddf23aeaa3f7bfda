// Package id generates identifiers for stored records.
package id

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// PushAlphabet is ordered by ASCII value so that keys built from it
// sort lexicographically in the same order as the values they encode.
const PushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

const (
	pushTimeLen   = 8
	pushRandomLen = 12

	// PushKeyLen is the length of every key returned by Push.
	PushKeyLen = pushTimeLen + pushRandomLen
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "tok-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// PushGenerator produces unique, lexicographically time-ordered keys for
// append-only collections. Keys are 20 characters: 8 encode the creation
// time in milliseconds and 12 are random. Within the same millisecond the
// random part is incremented, so keys from one generator are strictly
// increasing.
type PushGenerator struct {
	mu       sync.Mutex
	now      func() time.Time
	lastTime int64
	lastRand [pushRandomLen]int
}

// NewPushGenerator returns a generator driven by the wall clock.
func NewPushGenerator() *PushGenerator {
	return &PushGenerator{now: time.Now}
}

var defaultPush = NewPushGenerator()

// Push returns a new push key from the package-level generator.
func Push() (string, error) {
	return defaultPush.Next()
}

// Next returns the next push key.
func (g *PushGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms < g.lastTime {
		// Clock went backwards; keep ordering by pinning to the last timestamp.
		ms = g.lastTime
	}

	if ms == g.lastTime {
		if !g.increment() {
			// Random part overflowed within one millisecond.
			ms++
			if err := g.randomize(); err != nil {
				return "", err
			}
		}
	} else {
		if err := g.randomize(); err != nil {
			return "", err
		}
	}
	g.lastTime = ms

	var key [PushKeyLen]byte
	t := ms
	for i := pushTimeLen - 1; i >= 0; i-- {
		key[i] = PushAlphabet[t%64]
		t /= 64
	}
	for i, r := range g.lastRand {
		key[pushTimeLen+i] = PushAlphabet[r]
	}
	return string(key[:]), nil
}

func (g *PushGenerator) randomize() error {
	s, err := gonanoid.Generate(PushAlphabet, pushRandomLen)
	if err != nil {
		return fmt.Errorf("generate push key: %w", err)
	}
	for i := 0; i < pushRandomLen; i++ {
		g.lastRand[i] = indexOf(s[i])
	}
	return nil
}

// increment adds one to the random part, reporting false on overflow.
func (g *PushGenerator) increment() bool {
	for i := pushRandomLen - 1; i >= 0; i-- {
		if g.lastRand[i] < 63 {
			g.lastRand[i]++
			return true
		}
		g.lastRand[i] = 0
	}
	return false
}

func indexOf(c byte) int {
	switch {
	case c == '-':
		return 0
	case c >= '0' && c <= '9':
		return int(c-'0') + 1
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 11
	case c == '_':
		return 37
	default:
		return int(c-'a') + 38
	}
}

// PushTime decodes the creation time embedded in a push key.
func PushTime(key string) (time.Time, error) {
	if len(key) != PushKeyLen {
		return time.Time{}, fmt.Errorf("invalid push key length %d", len(key))
	}
	var ms int64
	for i := 0; i < pushTimeLen; i++ {
		ms = ms*64 + int64(indexOf(key[i]))
	}
	return time.UnixMilli(ms), nil
}
