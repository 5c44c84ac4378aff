package gateway

import (
	"context"
	"errors"
	"sync"
)

// Common test errors
var (
	errMockTransport = errors.New("mock transport error")
)

// mockProvider implements Provider for testing.
type mockProvider struct {
	mu           sync.Mutex
	id           string
	Output       string
	Err          error
	CompleteFunc func(ctx context.Context, p Prompt) (string, error)
	CallCount    int
	LastPrompt   Prompt
}

func newMockProvider(id, output string) *mockProvider {
	return &mockProvider{id: id, Output: output}
}

func (m *mockProvider) ID() string { return m.id }

func (m *mockProvider) Complete(ctx context.Context, p Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastPrompt = p

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, p)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Output, nil
}
