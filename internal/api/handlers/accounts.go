package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/api/middleware"
	"github.com/dvloznov/wealth-tracker/internal/models"
)

// AccountStore is the slice of the store the accounts handler needs.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccount(ctx context.Context, id, userID string) (*models.Account, error)
	SetDefaultAccount(ctx context.Context, id, userID string) (*models.Account, error)
	ListAccountTransactions(ctx context.Context, accountID, userID string) ([]models.Transaction, error)
	CountTransactions(ctx context.Context, accountID string) (int64, error)
}

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	store AccountStore
	log   zerolog.Logger
}

func NewAccountsHandler(store AccountStore, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{store: store, log: log}
}

type createAccountRequest struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	IsDefault bool            `json:"is_default"`
}

// Create handles POST /api/accounts
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createAccountRequest
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	accountType := models.AccountType(req.Type)
	if accountType != models.AccountTypeCurrent && accountType != models.AccountTypeSavings {
		middleware.WriteError(w, http.StatusBadRequest, "Type must be CURRENT or SAVINGS")
		return
	}
	if req.Balance.IsNegative() {
		middleware.WriteError(w, http.StatusBadRequest, "Balance cannot be negative")
		return
	}

	account := &models.Account{
		UserID:    uid,
		Name:      req.Name,
		Type:      accountType,
		Balance:   req.Balance,
		IsDefault: req.IsDefault,
	}

	if err := h.store.CreateAccount(r.Context(), account); err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to create account")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, account)
}

// List handles GET /api/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	type accountSummary struct {
		models.Account
		TransactionCount int64 `json:"transaction_count"`
	}

	summaries := make([]accountSummary, 0, len(accounts))
	for _, account := range accounts {
		count, err := h.store.CountTransactions(r.Context(), account.ID)
		if err != nil {
			h.log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to count transactions")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
			return
		}
		summaries = append(summaries, accountSummary{Account: account, TransactionCount: count})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": summaries,
		"count":    len(summaries),
	})
}

// Get handles GET /api/accounts/{id}
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")

	account, err := h.store.GetAccount(r.Context(), accountID, uid)
	if err != nil {
		writeStoreError(w, err, "Account not found")
		return
	}

	transactions, err := h.store.ListAccountTransactions(r.Context(), accountID, uid)
	if err != nil {
		h.log.Error().Err(err).Str("account_id", accountID).Msg("Failed to list account transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list account transactions")
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account":      account,
		"transactions": transactions,
	})
}

// SetDefault handles PUT /api/accounts/{id}/default
func (h *AccountsHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID := chi.URLParam(r, "id")

	account, err := h.store.SetDefaultAccount(r.Context(), accountID, uid)
	if err != nil {
		writeStoreError(w, err, "Account not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, account)
}
