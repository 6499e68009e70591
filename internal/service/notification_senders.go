package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	host       string
}

// NewSendGridSender builds an email sender for the given account.
func NewSendGridSender(key, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		key:        key,
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + fromName + "] ",
		host:       sendGridHost,
	}
}

// Send posts a single plain-text message.
func (s *SendGridSender) Send(ctx context.Context, to Recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + subject
	p.AddTos(sgmail.NewEmail(to.Name, to.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", body))

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. It backs
// SMS and stands in for email when no SendGrid key is configured.
type LogSender struct {
	channel string
	logger  *zap.Logger
}

// NewLogSender constructs a log-only sender for channel.
func NewLogSender(channel string, logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{channel: channel, logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, to Recipient, subject, body string) error {
	s.logger.Info("outbound message",
		zap.String("channel", s.channel),
		zap.String("to_email", to.Email),
		zap.String("to_phone", to.Phone),
		zap.String("subject", subject),
		zap.Int("body_length", len(body)),
	)
	return nil
}
