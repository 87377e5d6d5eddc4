// Package report builds and sends the monthly financial report emails.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/budget"
	"github.com/dvloznov/wealth-tracker/internal/models"
)

// MonthlyStats is the aggregate a report is built from.
type MonthlyStats struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	// ByCategory holds expense totals keyed by category label.
	ByCategory       map[string]decimal.Decimal
	TransactionCount int
}

// Aggregate folds a month of transactions into MonthlyStats.
func Aggregate(transactions []models.Transaction) MonthlyStats {
	stats := MonthlyStats{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		ByCategory:    make(map[string]decimal.Decimal),
	}
	for _, t := range transactions {
		stats.TransactionCount++
		if t.Type == models.TransactionTypeIncome {
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount)
			continue
		}
		stats.TotalExpenses = stats.TotalExpenses.Add(t.Amount)
		stats.ByCategory[t.Category] = stats.ByCategory[t.Category].Add(t.Amount)
	}
	return stats
}

// Net returns income minus expenses.
func (s MonthlyStats) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// Report is one rendered monthly report.
type Report struct {
	// Month is the human label of the reported month, e.g. "January 2024".
	Month    string
	Stats    MonthlyStats
	Insights []string
}

// Store is the persistence surface the generator needs.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)

	// RecordMonthlyReport claims the (user, period) idempotency key and
	// returns false when a report for the period was already recorded.
	RecordMonthlyReport(ctx context.Context, userID, period string, sentAt time.Time) (bool, error)
}

// InsightGenerator produces short narrative insights for a month of stats.
type InsightGenerator interface {
	MonthlyInsights(ctx context.Context, stats MonthlyStats, monthLabel string) ([]string, error)
}

// Sender delivers a monthly report to a user.
type Sender interface {
	SendMonthlyReport(ctx context.Context, to, userName string, report Report) error
}

// FallbackInsights is used whenever the AI collaborator fails; the report
// still goes out.
func FallbackInsights() []string {
	return []string{
		"Your highest expense category this month might need attention.",
		"Consider setting up a budget for better financial management.",
		"Track your recurring expenses to identify potential savings.",
	}
}

// StaticInsights is an InsightGenerator that always returns the fallback
// set. Used when no AI backend is configured.
type StaticInsights struct{}

func (StaticInsights) MonthlyInsights(ctx context.Context, stats MonthlyStats, monthLabel string) ([]string, error) {
	return FallbackInsights(), nil
}

// Generator runs the monthly report job.
type Generator struct {
	store    Store
	insights InsightGenerator
	sender   Sender
	log      zerolog.Logger
	now      func() time.Time
}

// NewGenerator creates a monthly report generator.
func NewGenerator(s Store, insights InsightGenerator, sender Sender, log zerolog.Logger) *Generator {
	return &Generator{
		store:    s,
		insights: insights,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
}

// Run generates and sends the prior month's report for every user with
// activity in that month. The (user, period) record is claimed before the
// send, so a retried run cannot double-send. Returns the number of reports
// sent.
func (g *Generator) Run(ctx context.Context) (int, error) {
	now := g.now()
	from, to := budget.MonthRange(now.AddDate(0, -1, 0))
	period := from.Format("2006-01")
	label := from.Format("January 2006")

	users, err := g.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("monthly report: list users: %w", err)
	}

	sent := 0
	for i := range users {
		user := &users[i]

		transactions, err := g.store.ListTransactionsInRange(ctx, user.ID, from, to)
		if err != nil {
			g.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to load month transactions")
			continue
		}
		if len(transactions) == 0 {
			// Nothing to report.
			continue
		}

		claimed, err := g.store.RecordMonthlyReport(ctx, user.ID, period, now)
		if err != nil {
			g.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to claim report record")
			continue
		}
		if !claimed {
			g.log.Debug().Str("user_id", user.ID).Str("period", period).Msg("Report already sent for period")
			continue
		}

		stats := Aggregate(transactions)

		insights, err := g.insights.MonthlyInsights(ctx, stats, label)
		if err != nil || len(insights) == 0 {
			if err != nil {
				g.log.Warn().Err(err).Str("user_id", user.ID).Msg("Insight generation failed, using fallback")
			}
			insights = FallbackInsights()
		}

		report := Report{
			Month:    label,
			Stats:    stats,
			Insights: insights,
		}
		if err := g.sender.SendMonthlyReport(ctx, user.Email, user.Name, report); err != nil {
			g.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send monthly report")
			continue
		}

		g.log.Info().
			Str("user_id", user.ID).
			Str("period", period).
			Int("transactions", stats.TransactionCount).
			Msg("Monthly report sent")
		sent++
	}

	return sent, nil
}
