package common

import (
	"context"
	"sync"
)

// Email represents a single outbound HTML message.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// EmailSender defines the contract for sending emails through a provider.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// InMemoryEmail provides a test-friendly email sender that records messages.
type InMemoryEmail struct {
	mu     sync.Mutex
	Outbox []Email
}

// Send records the email in memory.
func (m *InMemoryEmail) Send(_ context.Context, msg Email) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outbox = append(m.Outbox, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *InMemoryEmail) Messages() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.Outbox...)
}
