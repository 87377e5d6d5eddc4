package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/jobs"
	"github.com/dvloznov/wealth-tracker/internal/logger"
	"github.com/dvloznov/wealth-tracker/internal/models"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

// mockStore simulates the persistence layer: it tracks one account balance
// and advances the template exactly the way ApplyMaterialization commits.
type mockStore struct {
	template *models.Transaction
	balance  decimal.Decimal

	derived  []*models.Transaction
	applyErr error
}

func (m *mockStore) GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error) {
	if m.template == nil || m.template.ID != id || m.template.UserID != userID {
		return nil, store.ErrNotFound
	}
	copy := *m.template
	return &copy, nil
}

func (m *mockStore) ApplyMaterialization(ctx context.Context, derived *models.Transaction, templateID string, processedAt, nextDue time.Time) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.derived = append(m.derived, derived)
	m.balance = m.balance.Add(store.BalanceDelta(derived.Type, derived.Amount))
	processed := processedAt
	next := nextDue
	m.template.LastProcessedAt = &processed
	m.template.NextRecurringDate = &next
	return nil
}

func newTestMaterializer(s Store, now time.Time) *Materializer {
	m := NewMaterializer(s, logger.NewWithWriter(&bytes.Buffer{}))
	m.now = func() time.Time { return now }
	return m
}

func monthly() *models.RecurringInterval {
	interval := models.IntervalMonthly
	return &interval
}

func template(amount string, txType models.TransactionType) *models.Transaction {
	due := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	return &models.Transaction{
		ID:                "tpl-1",
		UserID:            "user-1",
		AccountID:         "acct-1",
		Type:              txType,
		Amount:            decimal.RequireFromString(amount),
		Description:       "Gym membership",
		Category:          "entertainment",
		IsRecurring:       true,
		RecurringInterval: monthly(),
		NextRecurringDate: &due,
		Status:            models.TransactionStatusProcessed,
	}
}

func TestMaterialize_Expense(t *testing.T) {
	now := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("50.00", models.TransactionTypeExpense),
		balance:  decimal.RequireFromString("1000.00"),
	}
	m := newTestMaterializer(s, now)

	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	if want := decimal.RequireFromString("950.00"); !s.balance.Equal(want) {
		t.Errorf("Balance = %s, want %s", s.balance, want)
	}
	if len(s.derived) != 1 {
		t.Fatalf("Expected 1 derived transaction, got %d", len(s.derived))
	}

	derived := s.derived[0]
	if derived.IsRecurring {
		t.Error("Derived transaction must not be recurring")
	}
	if derived.Status != models.TransactionStatusProcessed {
		t.Errorf("Derived status = %s, want PROCESSED", derived.Status)
	}
	if !derived.Date.Equal(now) {
		t.Errorf("Derived date = %v, want %v", derived.Date, now)
	}
	if derived.Description != "Gym membership - Recurring" {
		t.Errorf("Derived description = %q", derived.Description)
	}
	if derived.Category != "entertainment" {
		t.Errorf("Derived category = %q", derived.Category)
	}
}

func TestMaterialize_Income(t *testing.T) {
	now := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("2500.00", models.TransactionTypeIncome),
		balance:  decimal.RequireFromString("100.00"),
	}
	m := newTestMaterializer(s, now)

	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if want := decimal.RequireFromString("2600.00"); !s.balance.Equal(want) {
		t.Errorf("Balance = %s, want %s", s.balance, want)
	}
}

func TestMaterialize_AdvancesSchedule(t *testing.T) {
	// Template due 2024-01-31, never processed, fired on 2024-02-01: the
	// schedule advances from processing time, so the next due date is
	// 2024-03-01.
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("50.00", models.TransactionTypeExpense),
		balance:  decimal.Zero,
	}
	s.template.LastProcessedAt = nil
	m := newTestMaterializer(s, now)

	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}

	if s.template.LastProcessedAt == nil || !s.template.LastProcessedAt.Equal(now) {
		t.Errorf("LastProcessedAt = %v, want %v", s.template.LastProcessedAt, now)
	}
	wantNext := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if s.template.NextRecurringDate == nil || !s.template.NextRecurringDate.Equal(wantNext) {
		t.Errorf("NextRecurringDate = %v, want %v", s.template.NextRecurringDate, wantNext)
	}
}

func TestMaterialize_DuplicateDispatchIsNoOp(t *testing.T) {
	now := time.Date(2024, time.February, 1, 8, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("50.00", models.TransactionTypeExpense),
		balance:  decimal.RequireFromString("1000.00"),
	}
	m := newTestMaterializer(s, now)

	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err != nil {
		t.Fatalf("First Materialize() error = %v", err)
	}
	// Simulates duplicate dispatch: the template has already advanced, so
	// the due re-check must make the second call a no-op.
	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err != nil {
		t.Fatalf("Second Materialize() error = %v", err)
	}

	if len(s.derived) != 1 {
		t.Errorf("Expected exactly 1 derived transaction, got %d", len(s.derived))
	}
	if want := decimal.RequireFromString("950.00"); !s.balance.Equal(want) {
		t.Errorf("Balance = %s, want %s (double-applied?)", s.balance, want)
	}
}

func TestMaterialize_NotDueIsNoOp(t *testing.T) {
	now := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("50.00", models.TransactionTypeExpense),
		balance:  decimal.RequireFromString("1000.00"),
	}
	processed := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.template.LastProcessedAt = &processed
	m := newTestMaterializer(s, now)

	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(s.derived) != 0 {
		t.Errorf("Expected no derived transactions, got %d", len(s.derived))
	}
	if want := decimal.RequireFromString("1000.00"); !s.balance.Equal(want) {
		t.Errorf("Balance = %s, want unchanged %s", s.balance, want)
	}
}

func TestMaterialize_NotFound(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	s := &mockStore{}
	m := newTestMaterializer(s, now)

	err := m.Materialize(context.Background(), "missing", "user-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Cross-user lookup must also miss.
	s.template = template("50.00", models.TransactionTypeExpense)
	err = m.Materialize(context.Background(), "tpl-1", "someone-else")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for wrong user, got %v", err)
	}
}

func TestMaterialize_MissingIntervalFailsLoudly(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("50.00", models.TransactionTypeExpense),
	}
	s.template.RecurringInterval = nil
	s.template.LastProcessedAt = nil
	m := newTestMaterializer(s, now)

	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err == nil {
		t.Error("Expected error for template without interval, got nil")
	}
	if len(s.derived) != 0 {
		t.Error("No writes may happen when the interval is invalid")
	}
}

func TestMaterialize_ApplyFailurePropagates(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("50.00", models.TransactionTypeExpense),
		applyErr: fmt.Errorf("connection reset"),
	}
	m := newTestMaterializer(s, now)

	if err := m.Materialize(context.Background(), "tpl-1", "user-1"); err == nil {
		t.Error("Expected transient storage failure to propagate for retry")
	}
}

func TestHandleJob(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	s := &mockStore{
		template: template("50.00", models.TransactionTypeExpense),
		balance:  decimal.RequireFromString("100.00"),
	}
	m := newTestMaterializer(s, now)

	job := &jobs.RecurringTransactionJob{
		JobID:         "job-1",
		TransactionID: "tpl-1",
		UserID:        "user-1",
	}
	if err := m.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("HandleJob() error = %v", err)
	}
	if len(s.derived) != 1 {
		t.Errorf("Expected 1 derived transaction, got %d", len(s.derived))
	}
}

func TestHandleJob_NotFoundIsNotRetried(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMaterializer(&mockStore{}, now)

	job := &jobs.RecurringTransactionJob{
		JobID:         "job-1",
		TransactionID: "missing",
		UserID:        "user-1",
	}
	// A nil return keeps the queue from retrying a permanently missing template.
	if err := m.HandleJob(context.Background(), job); err != nil {
		t.Errorf("HandleJob() error = %v, want nil for missing template", err)
	}
}

func TestHandleJob_InvalidPayload(t *testing.T) {
	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	m := newTestMaterializer(&mockStore{}, now)

	if err := m.HandleJob(context.Background(), &jobs.RecurringTransactionJob{JobID: "job-1"}); err == nil {
		t.Error("Expected error for job without transaction and user IDs")
	}
}
