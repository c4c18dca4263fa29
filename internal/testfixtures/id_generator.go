package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator produces deterministic sequential identifiers for tests.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

// NewIDGenerator creates a generator producing "<prefix>-1", "<prefix>-2", ...
func NewIDGenerator(prefix string) *IDGenerator {
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc returns a function suitable for injecting into services.
func (g *IDGenerator) NextFunc() func() string {
	return g.Next
}
