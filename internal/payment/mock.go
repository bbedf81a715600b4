package payment

import "context"

// MockProvider is a test implementation of Provider.
type MockProvider struct {
	CreateSessionFunc func(ctx context.Context, params SessionParams) (*Session, error)

	// CreateSessionCalls records the params of every invocation.
	CreateSessionCalls []SessionParams
}

// NewMockProvider creates a mock payment provider for testing.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// CreateSession delegates to the configured function or returns a default session.
func (m *MockProvider) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	m.CreateSessionCalls = append(m.CreateSessionCalls, params)
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, params)
	}
	return &Session{
		SessionID:   "sess-mock-0001",
		RedirectURL: "https://pay.example.test/sess-mock-0001",
		Gateway:     "mock",
	}, nil
}
