package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted test double for Client. Replies are returned in
// order; once they run out DefaultResult is used.
type MockClient struct {
	mu            sync.Mutex
	Replies       []string
	DefaultResult string
	// Handler, when set, computes the reply instead of the script.
	Handler       func(prompt, systemInstruction string) (string, error)
	Err           error
	PromptHistory []PromptCall
}

// PromptCall records a call to Complete.
type PromptCall struct {
	Prompt            string
	SystemInstruction string
}

// NewMockClient creates a MockClient that replies with replies in order.
func NewMockClient(replies ...string) *MockClient {
	return &MockClient{
		Replies:       replies,
		DefaultResult: "Mock LLM response",
	}
}

func (m *MockClient) Complete(_ context.Context, prompt, systemInstruction string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PromptHistory = append(m.PromptHistory, PromptCall{Prompt: prompt, SystemInstruction: systemInstruction})
	if m.Err != nil {
		return "", m.Err
	}
	if m.Handler != nil {
		return m.Handler(prompt, systemInstruction)
	}
	if len(m.Replies) > 0 {
		r := m.Replies[0]
		m.Replies = m.Replies[1:]
		return r, nil
	}
	return m.DefaultResult, nil
}

// GetPromptHistory returns a copy of every call made so far.
func (m *MockClient) GetPromptHistory() []PromptCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PromptCall(nil), m.PromptHistory...)
}

// Calls returns how many times Complete was called.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PromptHistory)
}
