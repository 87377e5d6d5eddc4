package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/api/middleware"
	"github.com/dvloznov/wealth-tracker/internal/budget"
	"github.com/dvloznov/wealth-tracker/internal/models"
)

// DashboardStore is the slice of the store the dashboard handler needs.
type DashboardStore interface {
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)
}

// DashboardHandler serves the aggregate view the app's home screen renders.
type DashboardHandler struct {
	store DashboardStore
	log   zerolog.Logger
}

func NewDashboardHandler(store DashboardStore, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{store: store, log: log}
}

// Summary handles GET /api/dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ctx := r.Context()

	accounts, err := h.store.ListAccounts(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	totalBalance := decimal.Zero
	for _, account := range accounts {
		totalBalance = totalBalance.Add(account.Balance)
	}

	from, to := budget.MonthRange(time.Now())
	transactions, err := h.store.ListTransactionsInRange(ctx, uid, from, to)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	income := decimal.Zero
	expenses := decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	for _, tx := range transactions {
		switch tx.Type {
		case models.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			expenses = expenses.Add(tx.Amount)
			byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total_balance":  totalBalance,
		"accounts":       accounts,
		"month_income":   income,
		"month_expenses": expenses,
		"month_net":      income.Sub(expenses),
		"by_category":    byCategory,
	})
}
