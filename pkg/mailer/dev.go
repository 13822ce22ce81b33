package mailer

import "github.com/cartour/cartour-rentals/pkg/logger"

// DevMailer logs outgoing mail instead of sending it. Used whenever
// EMAIL_DEV_MODE is on or no MailerSend key is configured.
type DevMailer struct{}

func (DevMailer) Send(toEmail, toName, subject, text, _ string) (string, error) {
	logger.Info("dev mailer: email suppressed",
		"to", toEmail,
		"to_name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}
