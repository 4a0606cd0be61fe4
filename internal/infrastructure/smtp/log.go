package smtp

import (
	"context"
	"log/slog"

	"github.com/campus-auth/internal/pkg/logging"
)

// LogMailer writes outgoing mail to the structured log instead of sending it.
// Intended for local development only.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	slog.Info("mail (not sent)", "to", logging.RedactEmail(to), "subject", subject, "body", body)
	return nil
}
