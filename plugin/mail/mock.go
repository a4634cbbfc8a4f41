package mail

import (
	"context"
	"strings"
	"sync"
)

// SentMessage records a message handed to MockClient.Send.
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockClient is an in-memory mailbox for tests.
type MockClient struct {
	Inbox    []*Message
	FetchErr error
	SendErr  error

	mu   sync.Mutex
	sent []SentMessage
}

var _ Client = (*MockClient)(nil)

// Fetch returns the newest k inbox messages, where the inbox is ordered oldest first.
func (m *MockClient) Fetch(_ context.Context, k int, from string) ([]*Message, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	out := []*Message{}
	for i := len(m.Inbox) - 1; i >= 0 && len(out) < k; i-- {
		msg := m.Inbox[i]
		if from != "" && !strings.Contains(strings.ToLower(msg.From), strings.ToLower(from)) {
			continue
		}
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockClient) Send(_ context.Context, to, subject, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns the messages sent so far.
func (m *MockClient) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}
