// Package ledger turns due recurring templates into concrete ledger entries.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-tracker/internal/jobs"
	"github.com/dvloznov/wealth-tracker/internal/models"
	"github.com/dvloznov/wealth-tracker/internal/recurrence"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

// Store is the persistence surface the materializer needs.
type Store interface {
	// GetTransaction fetches a transaction scoped by id and owning user.
	GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error)

	// ApplyMaterialization commits the derived entry, the balance increment
	// and the template advance as one atomic unit.
	ApplyMaterialization(ctx context.Context, derived *models.Transaction, templateID string, processedAt, nextDue time.Time) error
}

// Materializer fires due recurring templates. It is safe under duplicate
// dispatch: a template that already fired this cycle is no longer due, so a
// second invocation is a no-op.
type Materializer struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewMaterializer creates a materializer over the given store.
func NewMaterializer(s Store, log zerolog.Logger) *Materializer {
	return &Materializer{
		store: s,
		log:   log,
		now:   time.Now,
	}
}

// Materialize fires one recurring template identified by transaction ID and
// owning user ID.
//
// Steps:
//  1. Fetch the template scoped by id + userID.
//  2. Re-check due-ness; a stale dispatch is a no-op, not an error.
//  3. Atomically: insert the derived non-recurring entry dated now, apply the
//     balance delta to the owning account, and advance the template's
//     schedule.
func (m *Materializer) Materialize(ctx context.Context, transactionID, userID string) error {
	template, err := m.store.GetTransaction(ctx, transactionID, userID)
	if err != nil {
		return fmt.Errorf("materialize: fetch template %s: %w", transactionID, err)
	}

	now := m.now()
	if !recurrence.IsTemplateDue(template, now) {
		m.log.Debug().
			Str("transaction_id", transactionID).
			Str("user_id", userID).
			Msg("Template not due, skipping")
		return nil
	}

	var interval models.RecurringInterval
	if template.RecurringInterval != nil {
		interval = *template.RecurringInterval
	}
	nextDue, err := recurrence.NextDate(now, interval)
	if err != nil {
		return fmt.Errorf("materialize: template %s: %w", transactionID, err)
	}

	derived := &models.Transaction{
		UserID:      template.UserID,
		AccountID:   template.AccountID,
		Type:        template.Type,
		Amount:      template.Amount,
		Description: template.Description + " - Recurring",
		Category:    template.Category,
		Date:        now,
		IsRecurring: false,
		Status:      models.TransactionStatusProcessed,
	}

	if err := m.store.ApplyMaterialization(ctx, derived, template.ID, now, nextDue); err != nil {
		return fmt.Errorf("materialize: apply %s: %w", transactionID, err)
	}

	m.log.Info().
		Str("transaction_id", transactionID).
		Str("user_id", userID).
		Str("amount", template.Amount.String()).
		Str("type", string(template.Type)).
		Time("next_due", nextDue).
		Msg("Recurring transaction materialized")

	return nil
}

// HandleJob adapts Materialize to the job queue. A missing template is
// recorded and the unit skipped rather than retried; it would stay missing.
func (m *Materializer) HandleJob(ctx context.Context, job jobs.Job) error {
	rtJob, ok := job.(*jobs.RecurringTransactionJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", job)
	}
	if rtJob.TransactionID == "" || rtJob.UserID == "" {
		return fmt.Errorf("invalid job payload: missing transaction or user ID")
	}

	err := m.Materialize(ctx, rtJob.TransactionID, rtJob.UserID)
	if errors.Is(err, store.ErrNotFound) {
		m.log.Warn().
			Str("job_id", rtJob.JobID).
			Str("transaction_id", rtJob.TransactionID).
			Str("user_id", rtJob.UserID).
			Msg("Template not found, skipping job")
		return nil
	}
	return err
}
