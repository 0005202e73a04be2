// Package idgen allocates IDs for pipeline records behind a single
// interface, so tests can use a deterministic counter while production
// uses UUIDs.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator allocates unique IDs. The prefix names the record kind, e.g.
// "INT" for intentions, "DEC" for decisions, "APR" for approval requests.
type Generator interface {
	NextID(prefix string) string
}

// counterGenerator produces monotonically increasing IDs per prefix,
// formatted like INT-00001. Deterministic across runs, used in tests.
type counterGenerator struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewCounterGenerator creates a Generator with all counters at zero.
func NewCounterGenerator() Generator {
	return &counterGenerator{counters: make(map[string]int)}
}

func (g *counterGenerator) NextID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[prefix]++
	return fmt.Sprintf("%s-%05d", prefix, g.counters[prefix])
}

// uuidGenerator produces random UUID-suffixed IDs.
type uuidGenerator struct{}

// NewUUIDGenerator creates a Generator backed by random UUIDs.
func NewUUIDGenerator() Generator {
	return uuidGenerator{}
}

func (uuidGenerator) NextID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
