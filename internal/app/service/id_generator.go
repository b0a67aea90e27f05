package service

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	base62          = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	defaultIDLength = 6
	maxIDAttempts   = 16
)

var errIDSpaceExhausted = errors.New("could not find an unused link id")

// IDGenerator produces random base62 link ids. A bloom filter remembers ids
// this process has already handed out or seen taken, so obvious collisions
// are skipped before they reach the store. The store stays authoritative.
type IDGenerator struct {
	mu     sync.Mutex
	seen   *bloom.BloomFilter
	length int
}

// NewIDGenerator sizes the filter for the expected number of ids.
func NewIDGenerator(length int, expected uint) *IDGenerator {
	if length <= 0 {
		length = defaultIDLength
	}
	if expected == 0 {
		expected = 100_000
	}
	return &IDGenerator{
		seen:   bloom.NewWithEstimates(expected, 0.001),
		length: length,
	}
}

// Next returns a candidate id not yet observed by this generator.
func (g *IDGenerator) Next() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := randomString(g.length)
		if err != nil {
			return "", err
		}

		g.mu.Lock()
		taken := g.seen.TestOrAddString(id)
		g.mu.Unlock()

		if !taken {
			return id, nil
		}
	}
	return "", errIDSpaceExhausted
}

// Observe records an id known to exist.
func (g *IDGenerator) Observe(id string) {
	g.mu.Lock()
	g.seen.AddString(id)
	g.mu.Unlock()
}

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base62)))
	for i := range out {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = base62[num.Int64()]
	}
	return string(out), nil
}
