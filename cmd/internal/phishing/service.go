package phishing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ozran/cmd/internal/mail"
	"ozran/cmd/internal/metrics"
)

var (
	// ErrValidation is returned when input addresses are missing or malformed.
	ErrValidation = errors.New("phishing: invalid input")
	// ErrSendFailed is returned when the simulated notice could not be delivered.
	ErrSendFailed = errors.New("phishing: send failed")
)

// Config configures the simulation.
type Config struct {
	// PublicBaseURL is the externally reachable origin used in tracking links.
	PublicBaseURL string
	// TrainingURL is where clicked links land.
	TrainingURL string
	// AlertEmail receives a notice for every click. Empty disables alerts.
	AlertEmail string
}

// SendTestInput requests one simulated notice.
type SendTestInput struct {
	// TesterEmail identifies who requested the test.
	TesterEmail string
	// TestEmail is the target mailbox.
	TestEmail string
}

// Service implements the simulation.
type Service struct {
	log     *slog.Logger
	cfg     Config
	sender  mail.Sender
	clicks  ClickStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(log *slog.Logger, cfg Config, sender mail.Sender, clicks ClickStore, m *metrics.Metrics) (*Service, error) {
	if sender == nil || clicks == nil {
		return nil, errors.New("phishing: missing dependency")
	}
	if strings.TrimSpace(cfg.PublicBaseURL) == "" || strings.TrimSpace(cfg.TrainingURL) == "" {
		return nil, errors.New("phishing: public base url and training url are required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		log:     log,
		cfg:     cfg,
		sender:  sender,
		clicks:  clicks,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// TrainingURL returns the landing page for clicked links.
func (s *Service) TrainingURL() string { return s.cfg.TrainingURL }

// SendTest mails the simulated notice to in.TestEmail.
func (s *Service) SendTest(ctx context.Context, in SendTestInput) error {
	tester := strings.TrimSpace(in.TesterEmail)
	target := strings.TrimSpace(in.TestEmail)
	if tester == "" || target == "" {
		return fmt.Errorf("%w: both emails are required", ErrValidation)
	}
	if !mail.ValidAddress(tester) || !mail.ValidAddress(target) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}

	html, err := renderNotice(trackingURL(s.cfg.PublicBaseURL, target))
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}

	err = s.sender.Send(ctx, mail.Message{
		To:      target,
		Subject: noticeSubject,
		HTML:    html,
		Tag:     "phishing-simulation",
	})
	if err != nil {
		s.metrics.PhishingEvent("send_failed")
		return errors.Join(ErrSendFailed, err)
	}

	s.metrics.PhishingEvent("sent")
	s.log.Info("phishing.send.ok", "tester", tester, "target", target)
	return nil
}

// TrackClick records c and alerts the configured address.
// Both steps are attempted; the first error is returned.
func (s *Service) TrackClick(ctx context.Context, c Click) error {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if c.ClickedAt.IsZero() {
		c.ClickedAt = s.now()
	}

	s.metrics.PhishingEvent("clicked")

	rec, recErr := s.clicks.RecordClick(ctx, c)
	if recErr != nil {
		s.log.Error("phishing.click.record.fail", "err", recErr)
		rec = c
	}

	var alertErr error
	if s.cfg.AlertEmail != "" {
		alertErr = s.sender.Send(ctx, mail.Message{
			To:      s.cfg.AlertEmail,
			Subject: "Phishing Alert - User Clicked!",
			Text:    fmt.Sprintf("The user %s clicked the phishing link at %s", rec.Email, rec.ClickedAt.UTC().Format(time.RFC3339)),
			Tag:     "phishing-alert",
		})
		if alertErr != nil {
			s.log.Error("phishing.click.alert.fail", "err", alertErr)
		}
	}

	return errors.Join(recErr, alertErr)
}
