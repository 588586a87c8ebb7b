package email

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogChannel is the mock-mode channel: it logs the would-be message and reports success
type LogChannel struct {
	logger zerolog.Logger
}

// NewLogChannel creates a LogChannel
func NewLogChannel(logger zerolog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Name implements DeliveryChannel
func (c *LogChannel) Name() string { return "log" }

// Send implements DeliveryChannel
func (c *LogChannel) Send(_ context.Context, msg Message) (Receipt, error) {
	id := "mock-" + uuid.NewString()

	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}

	c.logger.Warn().
		Str("messageId", id).
		Str("toEmail", msg.To).
		Str("subject", msg.Subject).
		Strs("attachments", names).
		Int("bodyBytes", len(msg.HTMLBody)).
		Msg("SMTP not configured - email logged instead of sent")

	return Receipt{ID: id}, nil
}
