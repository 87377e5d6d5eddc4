// Package budget evaluates monthly budgets and raises at most one alert per
// user per calendar month.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/models"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

// Alert threshold: percent of budget used.
var alertThreshold = decimal.NewFromInt(80)

// Store is the persistence surface the evaluator needs.
type Store interface {
	ListBudgets(ctx context.Context) ([]models.Budget, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetDefaultAccount(ctx context.Context, userID string) (*models.Account, error)
	SumExpenses(ctx context.Context, userID, accountID string, from, to time.Time) (decimal.Decimal, error)
	UpdateLastAlertSent(ctx context.Context, budgetID string, sentAt time.Time) error
}

// Alert carries the figures rendered into a budget alert email.
type Alert struct {
	AccountName   string
	BudgetAmount  decimal.Decimal
	TotalExpenses decimal.Decimal
	PercentUsed   decimal.Decimal
}

// AlertSender delivers a budget alert to a user. Delivery failures are the
// sender's to report; the evaluator logs them and moves on.
type AlertSender interface {
	SendBudgetAlert(ctx context.Context, to, userName string, alert Alert) error
}

// Evaluator runs the periodic budget check.
type Evaluator struct {
	store  Store
	sender AlertSender
	log    zerolog.Logger
	now    func() time.Time
}

// NewEvaluator creates a budget evaluator.
func NewEvaluator(s Store, sender AlertSender, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		store:  s,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

// CheckBudgets evaluates every budget against the current month's expenses
// on the user's default account. It returns the number of alert attempts.
//
// An alert fires when at least 80% of the budget is used and no alert has
// been sent this calendar month. The last-alert timestamp is recorded after
// the attempt regardless of delivery outcome: the guarantee is at most one
// attempt per month, not delivery.
func (e *Evaluator) CheckBudgets(ctx context.Context) (int, error) {
	budgets, err := e.store.ListBudgets(ctx)
	if err != nil {
		return 0, fmt.Errorf("budget check: list budgets: %w", err)
	}

	now := e.now()
	alerts := 0

	for i := range budgets {
		b := &budgets[i]

		account, err := e.store.GetDefaultAccount(ctx, b.UserID)
		if errors.Is(err, store.ErrNotFound) {
			// No default account, nothing to evaluate against.
			continue
		}
		if err != nil {
			e.log.Error().Err(err).Str("user_id", b.UserID).Msg("Failed to resolve default account")
			continue
		}

		from, to := MonthRange(now)
		total, err := e.store.SumExpenses(ctx, b.UserID, account.ID, from, to)
		if err != nil {
			e.log.Error().Err(err).Str("user_id", b.UserID).Msg("Failed to sum expenses")
			continue
		}

		percent := PercentUsed(total, b.Amount)
		if percent.LessThan(alertThreshold) {
			continue
		}
		if b.LastAlertSent != nil && !isNewMonth(*b.LastAlertSent, now) {
			// Already alerted this month.
			continue
		}

		user, err := e.store.GetUser(ctx, b.UserID)
		if err != nil {
			e.log.Error().Err(err).Str("user_id", b.UserID).Msg("Failed to load user for alert")
			continue
		}

		alert := Alert{
			AccountName:   account.Name,
			BudgetAmount:  b.Amount,
			TotalExpenses: total,
			PercentUsed:   percent,
		}
		if err := e.sender.SendBudgetAlert(ctx, user.Email, user.Name, alert); err != nil {
			e.log.Error().Err(err).Str("user_id", b.UserID).Msg("Failed to send budget alert")
		}

		// Stamp after the attempt so the tick cannot alert again this month.
		if err := e.store.UpdateLastAlertSent(ctx, b.ID, now); err != nil {
			e.log.Error().Err(err).Str("budget_id", b.ID).Msg("Failed to record alert timestamp")
			continue
		}

		e.log.Info().
			Str("user_id", b.UserID).
			Str("account", account.Name).
			Str("percent_used", percent.StringFixed(1)).
			Msg("Budget alert sent")
		alerts++
	}

	return alerts, nil
}

// PercentUsed computes totalExpenses / budgetAmount * 100. A zero or negative
// budget yields 0 rather than dividing by zero.
func PercentUsed(totalExpenses, budgetAmount decimal.Decimal) decimal.Decimal {
	if budgetAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return totalExpenses.Div(budgetAmount).Mul(decimal.NewFromInt(100))
}

// MonthRange returns the inclusive bounds of now's calendar month:
// the first day at 00:00:00 and the last day at 23:59:59.
func MonthRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// isNewMonth reports whether two instants fall in different calendar months.
func isNewMonth(a, b time.Time) bool {
	return a.Month() != b.Month() || a.Year() != b.Year()
}
