package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/roster/internal/dependencies/idgen"
)

// MockIDs is a deterministic ID generator for tests
type MockIDs struct {
	mu      sync.Mutex
	queued  []string
	counter int
}

// Ensure MockIDs implements Generator
var _ idgen.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// NewID returns the next queued ID, or "id-N" once the queue is empty
func (m *MockIDs) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queued) > 0 {
		id := m.queued[0]
		m.queued = m.queued[1:]
		return id
	}
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}

// Queue adds IDs to be returned in order
func (m *MockIDs) Queue(ids ...string) {
	m.mu.Lock()
	m.queued = append(m.queued, ids...)
	m.mu.Unlock()
}
