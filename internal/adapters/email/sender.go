// Package email delivers account notifications. Resend is used when an API
// key is configured; otherwise messages are logged and kept in memory.
package email

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNoRecipients = errors.New("email: at least one recipient is required")
	ErrNoSubject    = errors.New("email: subject is required")
	ErrNoBody       = errors.New("email: html or text body is required")
)

// Message is one outgoing notification.
type Message struct {
	To       []string
	From     string // empty uses the sender's default
	ReplyTo  string
	Subject  string
	HTML     string
	Text     string
	Category string // provider tag, e.g. "welcome"

	// IdempotencyKey lets the provider drop a retried duplicate.
	IdempotencyKey string
}

// Validate reports whether the message can be handed to a provider.
func (m Message) Validate() error {
	if len(m.recipients()) == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrNoSubject
	}
	if m.HTML == "" && m.Text == "" {
		return ErrNoBody
	}
	return nil
}

// recipients returns To without blank entries.
func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, addr := range m.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Receipt is what the provider returned for an accepted message.
type Receipt struct {
	ID         string
	Provider   string
	AcceptedAt time.Time
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
