package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Message is a plain-text notification email.
type Message struct {
	To      []string
	Subject string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures a sender.
type Config struct {
	Provider    string
	APIKey      string
	FromName    string
	FromAddress string
	// Host overrides the SendGrid API host.
	Host string
}

// New returns the sender named by cfg.Provider. Unknown or empty providers
// fall back to the log sender.
func New(cfg Config, logger *zap.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Provider) {
	case "sendgrid":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires an api key")
		}
		return NewSendGridSender(cfg), nil
	default:
		return NewLogSender(logger), nil
	}
}

// ParseAddresses splits a comma separated address list, skipping blanks.
func ParseAddresses(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := mail.ParseAddress(part)
		if err != nil {
			return nil, fmt.Errorf("parse address %q: %w", part, err)
		}
		out = append(out, addr.Address)
	}
	return out, nil
}

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("email",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}
