package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// SMTPChannel delivers messages through an SMTP relay
type SMTPChannel struct {
	config  SMTPConfig
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewSMTPChannel creates an SMTPChannel. A non-positive rate disables throttling.
func NewSMTPChannel(config SMTPConfig, logger zerolog.Logger) *SMTPChannel {
	limit := rate.Inf
	if config.RatePerSec > 0 {
		limit = rate.Limit(config.RatePerSec)
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}

	return &SMTPChannel{
		config:  config,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Name implements DeliveryChannel
func (c *SMTPChannel) Name() string { return "smtp" }

// Send implements DeliveryChannel. The context bounds both the throttle wait and the SMTP dialogue.
func (c *SMTPChannel) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Receipt{}, fmt.Errorf("send throttled: %w", err)
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), c.config.Host)
	raw, err := BuildMessage(c.from(), id, msg)
	if err != nil {
		return Receipt{}, err
	}

	if err := c.deliver(ctx, msg.To, raw); err != nil {
		c.logger.Error().Err(err).Str("toEmail", msg.To).Str("subject", msg.Subject).Msg("Failed to send email")
		return Receipt{}, err
	}

	c.logger.Info().Str("messageId", id).Str("toEmail", msg.To).Msg("Email sent")
	return Receipt{ID: id}, nil
}

func (c *SMTPChannel) from() string {
	if c.config.FromName == "" {
		return c.config.FromEmail
	}
	return mime.QEncoding.Encode("utf-8", c.config.FromName) + " <" + c.config.FromEmail + ">"
}

func (c *SMTPChannel) deliver(ctx context.Context, to string, raw []byte) error {
	serverAddress := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", serverAddress)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsConfig := &tls.Config{ServerName: c.config.Host, MinVersion: tls.VersionTLS12}

	// UseTLS means implicit TLS (port 465); otherwise STARTTLS is used when offered
	if c.config.UseTLS {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if !c.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}

	auth := smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(c.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// BuildMessage renders msg as a MIME document: a single HTML part, or
// multipart/mixed when attachments are present.
func BuildMessage(from, messageID string, msg Message) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}
	writeHeader("From", from)
	writeHeader("To", msg.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Message-ID", messageID)
	writeHeader("Date", time.Now().UTC().Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")

	if len(msg.Attachments) == 0 {
		writeHeader("Content-Type", "text/html; charset=UTF-8")
		writeHeader("Content-Transfer-Encoding", "base64")
		buf.WriteString("\r\n")
		writeBase64(&buf, []byte(msg.HTMLBody))
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create body part: %w", err)
	}
	writeBase64(body, []byte(msg.HTMLBody))

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mime.FormatMediaType(contentType, map[string]string{"name": a.Filename})},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment part: %w", err)
		}
		writeBase64(part, a.Content)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart message: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBase64 writes data base64-encoded in 76 character lines
func writeBase64(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		_, _ = w.Write([]byte(encoded[:76] + "\r\n"))
		encoded = encoded[76:]
	}
	_, _ = w.Write([]byte(encoded + "\r\n"))
}
