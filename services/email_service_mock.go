package services

import (
	"context"
	"errors"
	"sync"
)

// SentEmail records one email the mock was asked to send
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailService is a mock implementation of EmailSender for testing
type MockEmailService struct {
	mu       sync.Mutex
	sent     []SentEmail
	failNext bool
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

// SetAsMockForTesting sets this mock as the global email service instance for testing
func (m *MockEmailService) SetAsMockForTesting() {
	SetEmailService(m)
}

// FailNext makes the next send return an error
func (m *MockEmailService) FailNext() {
	m.mu.Lock()
	m.failNext = true
	m.mu.Unlock()
}

// SendNotificationEmail records the email instead of sending it
func (m *MockEmailService) SendNotificationEmail(ctx context.Context, toEmail, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("mock email failure")
	}
	m.sent = append(m.sent, SentEmail{To: toEmail, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of the recorded emails (for testing assertions)
func (m *MockEmailService) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}
