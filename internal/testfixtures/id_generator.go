package testfixtures

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// idNamespace seeds the name based UUIDs handed out by IDGenerator.
var idNamespace = uuid.MustParse("6f1c6d0e-2d7a-4a53-9a43-6a0b5f3b7c11")

// IDGenerator yields reproducible identifiers shaped like the random UUIDs
// used in production: the n-th call with a given prefix always returns the
// same SHA-1 name based UUID.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
}

// NewIDGenerator constructs a generator for prefix, "id" when empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return NamedID(g.prefix, g.counter)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return uuid.NewString
	}
	return g.Next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}

// NamedID is the identifier IDGenerator returns on its n-th call for prefix.
func NamedID(prefix string, n uint64) string {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s-%d", prefix, n))).String()
}
