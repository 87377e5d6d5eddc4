package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-tracker/internal/jobs"
	"github.com/dvloznov/wealth-tracker/internal/models"
)

// TemplateSource lists recurring templates due for processing.
type TemplateSource interface {
	ListDueRecurring(ctx context.Context, now time.Time) ([]models.Transaction, error)
}

// Trigger is the daily scan that fans due templates out to the queue, one
// independent job per template so a single failure cannot block the rest.
type Trigger struct {
	templates TemplateSource
	publisher jobs.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewTrigger creates the recurring-transaction trigger.
func NewTrigger(templates TemplateSource, publisher jobs.Publisher, log zerolog.Logger) *Trigger {
	return &Trigger{
		templates: templates,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Run scans for due templates and dispatches one job each.
// It returns the number of dispatched jobs.
func (t *Trigger) Run(ctx context.Context) (int, error) {
	now := t.now()

	due, err := t.templates.ListDueRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("trigger: list due templates: %w", err)
	}

	dispatched := 0
	for i := range due {
		template := &due[i]
		job := &jobs.RecurringTransactionJob{
			TransactionID: template.ID,
			UserID:        template.UserID,
		}
		if err := t.publisher.PublishRecurringTransaction(ctx, job); err != nil {
			t.log.Error().
				Err(err).
				Str("transaction_id", template.ID).
				Str("user_id", template.UserID).
				Msg("Failed to dispatch recurring transaction")
			continue
		}
		dispatched++
	}

	t.log.Info().
		Int("due", len(due)).
		Int("dispatched", dispatched).
		Msg("Recurring transaction scan complete")

	return dispatched, nil
}
