package email

import (
	"context"
	"errors"

	"github.com/dmitrymomot/predictvip/pkg/validator"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a rendered email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"-"`
	// Tag groups messages in provider analytics.
	Tag string `json:"tag,omitempty"`
}

// Validate checks the fields every provider needs.
func (m Message) Validate() error {
	if err := validator.Apply(
		validator.RequiredString("to", m.To),
		validator.ValidEmail("to", m.To),
		validator.RequiredString("subject", m.Subject),
		validator.MaxLenString("subject", m.Subject, 998),
		validator.RequiredString("html", m.HTML),
	); err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	return nil
}

// New returns a PostmarkSender when a server token is configured and a
// DevSender otherwise.
func New(cfg Config) (Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	return NewPostmarkSender(cfg)
}
