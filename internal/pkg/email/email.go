package email

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// Attachment is a file carried by a message
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one email to a single recipient
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Receipt identifies an accepted message
type Receipt struct {
	ID string
}

// DeliveryChannel hands messages to a transport. Implementations are chosen once at startup.
type DeliveryChannel interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
	Name() string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromName   string
	FromEmail  string
	UseTLS     bool
	RatePerSec float64
	Burst      int
}

// MockMode reports whether no SMTP server is configured
func (c SMTPConfig) MockMode() bool {
	return strings.TrimSpace(c.Host) == ""
}

// NewChannel selects the delivery channel for the process. Without a host it
// returns a LogChannel; a host without credentials is a configuration error.
func NewChannel(config SMTPConfig, logger zerolog.Logger) (DeliveryChannel, error) {
	if config.MockMode() {
		logger.Warn().Msg("SMTP host not configured - notifications will be logged, not delivered")
		return NewLogChannel(logger), nil
	}

	if config.Username == "" || config.Password == "" {
		return nil, apperrors.NewConfigurationError("smtp host %s configured without credentials", config.Host)
	}
	if config.FromEmail == "" {
		return nil, apperrors.NewConfigurationError("smtp sender address is required")
	}

	return NewSMTPChannel(config, logger), nil
}
