// Package mail delivers e-defter archives and reminders over SMTP.
//
// Configuration (see internal/config):
//   - SMTP_HOST, SMTP_PORT, SMTP_SECURE
//   - SMTP_USER, SMTP_PASSWORD
//   - EMAIL_FROM (defaults to SMTP_USER)
//   - MAIL_RATE_PER_SECOND: pacing for bulk sends
//
// Missing credentials are not detected at startup; they fail the first send
// with ErrMissingSMTPConfig.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	gomail "gopkg.in/mail.v2"

	"edefter/internal/logger"
)

// Config holds the SMTP server settings of a Sender.
type Config struct {
	Host          string
	Port          int
	Secure        bool // implicit TLS (port 465); otherwise STARTTLS when offered
	Insecure      bool // skip server certificate verification
	User          string
	Password      string
	From          string
	RatePerSecond float64
}

// Message is one outgoing e-mail. Body is plain text and is sent as HTML.
type Message struct {
	To          string
	CC          string
	BCC         string
	Subject     string
	Body        string
	Attachments []string // local file paths
}

// Sender sends messages through one SMTP server.
type Sender struct {
	cfg     Config
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewSender creates a Sender for cfg. A non-positive RatePerSecond allows one
// message per second.
func NewSender(cfg Config) *Sender {
	r := cfg.RatePerSecond
	if r <= 0 {
		r = 1
	}
	return &Sender{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(r), 1),
		log:     logger.WithComponent("mail"),
	}
}

func (s *Sender) dialer() (*gomail.Dialer, error) {
	if s.cfg.Host == "" || s.cfg.User == "" || s.cfg.Password == "" {
		return nil, ErrMissingSMTPConfig
	}
	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	d.SSL = s.cfg.Secure
	d.Timeout = 30 * time.Second
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host, InsecureSkipVerify: s.cfg.Insecure}
	return d, nil
}

func (s *Sender) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.User
}

// TestConnection dials and authenticates without sending anything.
func (s *Sender) TestConnection(ctx context.Context) error {
	const op = "TestConnection"

	if err := ctx.Err(); err != nil {
		return WrapMailError(op, "", err)
	}
	d, err := s.dialer()
	if err != nil {
		return WrapMailError(op, "", err)
	}
	conn, err := d.Dial()
	if err != nil {
		return WrapMailError(op, "", err)
	}
	return WrapMailError(op, "", conn.Close())
}

// Send delivers msg. It does not retry.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	const op = "Send"

	if msg.To == "" {
		return WrapMailError(op, "", ErrNoRecipient)
	}
	if err := ctx.Err(); err != nil {
		return WrapMailError(op, msg.To, err)
	}
	d, err := s.dialer()
	if err != nil {
		return WrapMailError(op, msg.To, err)
	}

	if err := d.DialAndSend(s.build(msg)); err != nil {
		return WrapMailError(op, msg.To, err)
	}

	s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("E-mail sent")
	return nil
}

func (s *Sender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from())
	m.SetHeader("To", msg.To)
	if msg.CC != "" {
		m.SetHeader("Cc", msg.CC)
	}
	if msg.BCC != "" {
		m.SetHeader("Bcc", msg.BCC)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", FormatHTML(msg.Body))
	for _, path := range msg.Attachments {
		m.Attach(path, gomail.Rename(filepath.Base(path)))
	}
	return m
}

// BulkResult summarizes a SendBulk run.
type BulkResult struct {
	Success int
	Failed  int
	Errors  []string
}

// SendBulk sends messages one at a time, paced by the configured rate. A
// failure is recorded and the run continues; after cancellation every
// remaining message is counted as failed.
func (s *Sender) SendBulk(ctx context.Context, msgs []Message) BulkResult {
	var result BulkResult
	for _, msg := range msgs {
		if err := s.limiter.Wait(ctx); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", msg.To, err))
			continue
		}
		if err := s.Send(ctx, msg); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", msg.To, err))
			continue
		}
		result.Success++
	}

	s.log.Info().
		Int("success", result.Success).
		Int("failed", result.Failed).
		Msg("Bulk send finished")
	return result
}
