package provider

import (
	"context"
	"sync"
)

// MockClient returns scripted responses for tests. Each call consumes
// the next entry in Script; when the script is exhausted the last entry
// repeats. An empty script always succeeds with a default response.
type MockClient struct {
	ClientName string
	Vision     bool
	Script     []MockResult

	mu    sync.Mutex
	calls int
	reqs  []Request
}

// MockResult is one scripted outcome.
type MockResult struct {
	Text string
	Err  error
}

// NewMockClient creates a mock that always succeeds with the given text.
func NewMockClient(name, text string) *MockClient {
	return &MockClient{ClientName: name, Script: []MockResult{{Text: text}}}
}

// Name returns the configured identifier.
func (m *MockClient) Name() string {
	if m.ClientName == "" {
		return "mock"
	}
	return m.ClientName
}

// SupportsVision reports the configured vision flag.
func (m *MockClient) SupportsVision() bool {
	return m.Vision
}

// Generate returns the next scripted result.
func (m *MockClient) Generate(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reqs = append(m.reqs, req)
	idx := m.calls
	m.calls++
	if len(m.Script) == 0 {
		return "mock response", nil
	}
	if idx >= len(m.Script) {
		idx = len(m.Script) - 1
	}
	r := m.Script[idx]
	return r.Text, r.Err
}

// Calls reports how many times Generate ran.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of the recorded requests.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.reqs))
	copy(out, m.reqs)
	return out
}
