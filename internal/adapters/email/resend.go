package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

const resendTimeout = 15 * time.Second

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	now    func() time.Time
}

// ResendOption customises a ResendSender.
type ResendOption func(*ResendSender) error

// WithBaseURL points the client at another API root, e.g. a local stub.
func WithBaseURL(raw string) ResendOption {
	return func(s *ResendSender) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("resend base url: %w", err)
		}
		s.client.BaseURL = u
		return nil
	}
}

// NewResendSender builds a sender for apiKey; from is used when a Message has none.
// PRE: apiKey is non-empty
func NewResendSender(apiKey, from string, opts ...ResendOption) (*ResendSender, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("resend: api key is empty")
	}
	s := &ResendSender{
		client: resend.NewCustomClient(&http.Client{Timeout: resendTimeout}, key),
		from:   strings.TrimSpace(from),
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Send validates msg and posts it to Resend.
// POST: Receipt.ID is the Resend email id
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}
	req := s.request(msg)

	var (
		sent *resend.SendEmailResponse
		err  error
	)
	if msg.IdempotencyKey != "" {
		sent, err = s.client.Emails.SendWithOptions(ctx, req, &resend.SendEmailOptions{IdempotencyKey: msg.IdempotencyKey})
	} else {
		sent, err = s.client.Emails.SendWithContext(ctx, req)
	}
	if err != nil {
		slog.Error("email_event", "event", "send_failed", "provider", "resend", "to", req.To, "subject", req.Subject, "error", err)
		return Receipt{}, fmt.Errorf("resend: send %q: %w", req.Subject, err)
	}

	slog.Info("email_event", "event", "message_sent", "provider", "resend", "id", sent.Id, "to", req.To, "category", msg.Category)
	return Receipt{ID: sent.Id, Provider: "resend", AcceptedAt: s.now()}, nil
}

func (s *ResendSender) request(msg Message) *resend.SendEmailRequest {
	from := msg.From
	if from == "" {
		from = s.from
	}
	req := &resend.SendEmailRequest{
		From:    from,
		To:      msg.recipients(),
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.Category != "" {
		req.Tags = []resend.Tag{{Name: "category", Value: msg.Category}}
	}
	return req
}
