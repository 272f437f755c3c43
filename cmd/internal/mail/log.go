package mail

import (
	"context"
	"log/slog"
)

// LogSender logs message metadata instead of delivering. Bodies are never logged.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender builds a LogSender.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "mail.send.logged", "to", msg.To, "subject", msg.Subject, "tag", msg.Tag)
	return nil
}
