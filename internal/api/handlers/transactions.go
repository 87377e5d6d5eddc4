package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/api/middleware"
	"github.com/dvloznov/wealth-tracker/internal/models"
	"github.com/dvloznov/wealth-tracker/internal/recurrence"
)

// TransactionStore is the slice of the store the transactions handler needs.
type TransactionStore interface {
	GetAccount(ctx context.Context, id, userID string) (*models.Account, error)
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error)
	ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error)
	DeleteTransactions(ctx context.Context, userID string, ids []string) error
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	store TransactionStore
	log   zerolog.Logger
}

func NewTransactionsHandler(store TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

type createTransactionRequest struct {
	AccountID         string          `json:"account_id"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Date              time.Time       `json:"date"`
	ReceiptURL        string          `json:"receipt_url"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval string          `json:"recurring_interval"`
}

// Create handles POST /api/transactions
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createTransactionRequest
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	txType := models.TransactionType(req.Type)
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		middleware.WriteError(w, http.StatusBadRequest, "Type must be INCOME or EXPENSE")
		return
	}
	if !req.Amount.IsPositive() {
		middleware.WriteError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}
	if req.AccountID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	// Ownership check before writing anything.
	if _, err := h.store.GetAccount(r.Context(), req.AccountID, uid); err != nil {
		writeStoreError(w, err, "Account not found")
		return
	}

	transaction := &models.Transaction{
		UserID:      uid,
		AccountID:   req.AccountID,
		Type:        txType,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Status:      models.TransactionStatusProcessed,
	}
	if req.ReceiptURL != "" {
		transaction.ReceiptURL = &req.ReceiptURL
	}

	if req.IsRecurring {
		interval := models.RecurringInterval(req.RecurringInterval)
		nextDue, err := recurrence.NextDate(req.Date, interval)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid recurring interval")
			return
		}
		transaction.IsRecurring = true
		transaction.RecurringInterval = &interval
		transaction.NextRecurringDate = &nextDue
	}

	if err := h.store.CreateTransaction(r.Context(), transaction); err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to create transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, transaction)
}

// Get handles GET /api/transactions/{id}
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	transaction, err := h.store.GetTransaction(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		writeStoreError(w, err, "Transaction not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, transaction)
}

// List handles GET /api/transactions?start_date=&end_date=
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := r.URL.Query()

	from := time.Now().AddDate(-1, 0, 0)
	to := time.Now()
	var err error

	if s := query.Get("start_date"); s != "" {
		from, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if s := query.Get("end_date"); s != "" {
		to, err = time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
		to = to.Add(24*time.Hour - time.Second)
	}

	transactions, err := h.store.ListTransactionsInRange(r.Context(), uid, from, to)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, transactions)
}

type deleteTransactionsRequest struct {
	IDs []string `json:"ids"`
}

// Delete handles POST /api/transactions/delete. Balances of the affected
// accounts are adjusted in the same database transaction as the deletes.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req deleteTransactionsRequest
	if err := decode(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "ids is required")
		return
	}

	if err := h.store.DeleteTransactions(r.Context(), uid, req.IDs); err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Int("count", len(req.IDs)).Msg("Failed to delete transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": len(req.IDs),
	})
}
