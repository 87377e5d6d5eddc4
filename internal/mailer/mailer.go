// Package mailer sends transactional email (budget alerts, monthly reports)
// through Resend.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-tracker/internal/budget"
	"github.com/dvloznov/wealth-tracker/internal/report"
)

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = "Wealth Tracker <onboarding@resend.dev>"

var (
	_ budget.AlertSender = (*Mailer)(nil)
	_ report.Sender      = (*Mailer)(nil)
)

// Mailer sends HTML email via the Resend API.
type Mailer struct {
	client *resend.Client
	from   string
	log    zerolog.Logger
}

// New creates a Mailer. An empty from falls back to DefaultFrom.
func New(apiKey, from string, log zerolog.Logger) *Mailer {
	if from == "" {
		from = DefaultFrom
	}
	return &Mailer{
		client: resend.NewClient(apiKey),
		from:   from,
		log:    log.With().Str("component", "mailer").Logger(),
	}
}

// SendBudgetAlert emails a user that their monthly budget has crossed the
// alert threshold.
func (m *Mailer) SendBudgetAlert(ctx context.Context, to, userName string, alert budget.Alert) error {
	html, err := renderBudgetAlert(userName, alert)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Budget Alert for %s Account", alert.AccountName)
	return m.send(ctx, to, subject, html)
}

// SendMonthlyReport emails a user their financial summary for a month.
func (m *Mailer) SendMonthlyReport(ctx context.Context, to, userName string, rpt report.Report) error {
	html, err := renderMonthlyReport(userName, rpt)
	if err != nil {
		return err
	}
	return m.send(ctx, to, "Your Monthly Financial Report", html)
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("mailer: send %q to %s: %w", subject, to, err)
	}

	m.log.Debug().
		Str("email_id", sent.Id).
		Str("to", to).
		Str("subject", subject).
		Msg("email sent")
	return nil
}
