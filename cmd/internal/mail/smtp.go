package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMTPConfig configures SMTPSender. Port 465 uses implicit TLS; any other port upgrades with STARTTLS.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds dialing; zero means 10s.
	Timeout time.Duration
}

// SMTPSender sends through an authenticated SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	auth smtp.Auth
}

// NewSMTPSender validates cfg and builds an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host is required", ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: smtp port must be between 1 and 65535", ErrInvalidConfig)
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("%w: smtp credentials are required", ErrInvalidConfig)
	}
	if !ValidAddress(cfg.From) {
		return nil, fmt.Errorf("%w: sender must be a valid email address", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{
		cfg:  cfg,
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
	}, nil
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.cfg.Timeout}

	var conn net.Conn
	var err error
	if s.cfg.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return errors.Join(ErrSendFailed, fmt.Errorf("connect: %w", err))
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return errors.Join(ErrSendFailed, fmt.Errorf("handshake: %w", err))
	}
	defer func() { _ = client.Close() }()

	if s.cfg.Port != 465 {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return errors.Join(ErrSendFailed, fmt.Errorf("starttls: %w", err))
		}
	}

	if err := s.transact(client, msg); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func (s *SMTPSender) transact(client *smtp.Client, msg Message) error {
	if err := client.Auth(s.auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMIME(s.cfg.From, s.cfg.Host, msg, time.Now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}
	return client.Quit()
}

// buildMIME renders msg as a single-part or multipart/alternative message.
func buildMIME(from, host string, msg Message, now time.Time) []byte {
	var b strings.Builder

	writeHeader := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	writeHeader("From", from)
	writeHeader("To", msg.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", now.Format(time.RFC1123Z))
	writeHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), host))
	writeHeader("MIME-Version", "1.0")

	switch {
	case msg.HTML != "" && msg.Text != "":
		boundary := "ozran-" + strings.ReplaceAll(uuid.NewString(), "-", "")
		writeHeader("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
		b.WriteString("\r\n")
		for _, part := range []struct{ ctype, body string }{
			{"text/plain", msg.Text},
			{"text/html", msg.HTML},
		} {
			b.WriteString("--" + boundary + "\r\n")
			writeHeader("Content-Type", part.ctype+`; charset="UTF-8"`)
			b.WriteString("\r\n")
			b.WriteString(part.body)
			b.WriteString("\r\n")
		}
		b.WriteString("--" + boundary + "--\r\n")
	case msg.HTML != "":
		writeHeader("Content-Type", `text/html; charset="UTF-8"`)
		b.WriteString("\r\n")
		b.WriteString(msg.HTML)
	default:
		writeHeader("Content-Type", `text/plain; charset="UTF-8"`)
		b.WriteString("\r\n")
		b.WriteString(msg.Text)
	}

	return []byte(b.String())
}
