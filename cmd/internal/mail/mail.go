// Package mail delivers transactional email.
//
// Sender is implemented by PostmarkSender (HTTP API), SMTPSender (any SMTP
// relay) and LogSender (development: logs metadata and drops the message).
package mail

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidConfig is returned by constructors for missing or malformed settings.
	ErrInvalidConfig = errors.New("mail: invalid config")
	// ErrInvalidMessage is returned when a message fails validation.
	ErrInvalidMessage = errors.New("mail: invalid message")
	// ErrSendFailed is joined with the transport error when delivery fails.
	ErrSendFailed = errors.New("mail: send failed")
)

// Message is one outgoing email. At least one of HTML or Text is required.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	// Tag groups messages for provider-side analytics.
	Tag string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var addrRe = regexp.MustCompile(`^[^\s@<>]+@[^\s@<>]+\.[^\s@<>]+$`)

// ValidAddress reports whether s looks like a bare email address.
func ValidAddress(s string) bool { return addrRe.MatchString(s) }

// Validate checks the message shape. Header injection via CR/LF is rejected.
func (m Message) Validate() error {
	switch {
	case !ValidAddress(m.To):
		return fmt.Errorf("%w: recipient must be a valid email address", ErrInvalidMessage)
	case strings.TrimSpace(m.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	case strings.ContainsAny(m.Subject, "\r\n") || strings.ContainsAny(m.To, "\r\n"):
		return fmt.Errorf("%w: header values must not contain line breaks", ErrInvalidMessage)
	case strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "":
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}
