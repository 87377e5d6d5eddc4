package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/api/middleware"
	"github.com/dvloznov/wealth-tracker/internal/budget"
	"github.com/dvloznov/wealth-tracker/internal/models"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

// BudgetStore is the slice of the store the budgets handler needs.
type BudgetStore interface {
	GetBudget(ctx context.Context, userID string) (*models.Budget, error)
	UpsertBudget(ctx context.Context, userID string, amount decimal.Decimal) (*models.Budget, error)
	GetDefaultAccount(ctx context.Context, userID string) (*models.Account, error)
	SumExpenses(ctx context.Context, userID, accountID string, from, to time.Time) (decimal.Decimal, error)
}

// BudgetsHandler handles budget endpoints.
type BudgetsHandler struct {
	store BudgetStore
	log   zerolog.Logger
}

func NewBudgetsHandler(store BudgetStore, log zerolog.Logger) *BudgetsHandler {
	return &BudgetsHandler{store: store, log: log}
}

// Get handles GET /api/budget. Returns the budget together with the current
// month's spending on the default account.
func (h *BudgetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	ctx := r.Context()

	b, err := h.store.GetBudget(ctx, uid)
	if err != nil {
		writeStoreError(w, err, "Budget not found")
		return
	}

	spent := decimal.Zero
	account, err := h.store.GetDefaultAccount(ctx, uid)
	switch {
	case err == nil:
		from, to := budget.MonthRange(time.Now())
		spent, err = h.store.SumExpenses(ctx, uid, account.ID, from, to)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to sum expenses")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute budget usage")
			return
		}
	case errors.Is(err, store.ErrNotFound):
		// No default account yet; usage stays zero.
	default:
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to load default account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute budget usage")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"budget":        b,
		"current_spent": spent,
		"percent_used":  budget.PercentUsed(spent, b.Amount),
	})
}

type upsertBudgetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Upsert handles PUT /api/budget
func (h *BudgetsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req upsertBudgetRequest
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Amount.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	b, err := h.store.UpsertBudget(r.Context(), uid, req.Amount)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to upsert budget")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save budget")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, b)
}
