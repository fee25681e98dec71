package email

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// NoopSender accepts messages without delivering them. The server falls back
// to it when SAEPE_RESEND_KEY is unset; tests read back what was "sent".
type NoopSender struct {
	mu   sync.Mutex
	now  func() time.Time
	sent []Message
}

// NewNoopSender returns an empty NoopSender using the wall clock.
func NewNoopSender() *NoopSender {
	return &NoopSender{now: time.Now}
}

// Send validates msg, records it and logs the delivery that would have happened.
// POST: on success msg is appended to Sent()
func (s *NoopSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	seq := len(s.sent)
	at := s.now()
	s.mu.Unlock()

	receipt := Receipt{ID: "noop-" + strconv.Itoa(seq), Provider: "noop", AcceptedAt: at}
	slog.Info("email_event", "event", "message_logged", "provider", receipt.Provider, "id", receipt.ID,
		"to", msg.recipients(), "subject", msg.Subject, "category", msg.Category)
	return receipt, nil
}

// Sent returns a copy of every accepted message, oldest first.
func (s *NoopSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
