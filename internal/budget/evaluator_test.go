package budget

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/logger"
	"github.com/dvloznov/wealth-tracker/internal/models"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

type mockBudgetStore struct {
	budgets        []models.Budget
	users          map[string]*models.User
	defaultAccount map[string]*models.Account
	expenses       map[string]decimal.Decimal // keyed by account ID

	lastAlertSet map[string]time.Time // budget ID -> stamped time
}

func (m *mockBudgetStore) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	return m.budgets, nil
}

func (m *mockBudgetStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockBudgetStore) GetDefaultAccount(ctx context.Context, userID string) (*models.Account, error) {
	if a, ok := m.defaultAccount[userID]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockBudgetStore) SumExpenses(ctx context.Context, userID, accountID string, from, to time.Time) (decimal.Decimal, error) {
	return m.expenses[accountID], nil
}

func (m *mockBudgetStore) UpdateLastAlertSent(ctx context.Context, budgetID string, sentAt time.Time) error {
	if m.lastAlertSet == nil {
		m.lastAlertSet = make(map[string]time.Time)
	}
	m.lastAlertSet[budgetID] = sentAt
	// Mirror the write back into the budget like the database would.
	for i := range m.budgets {
		if m.budgets[i].ID == budgetID {
			t := sentAt
			m.budgets[i].LastAlertSent = &t
		}
	}
	return nil
}

type mockAlertSender struct {
	sent    []Alert
	sendErr error
}

func (m *mockAlertSender) SendBudgetAlert(ctx context.Context, to, userName string, alert Alert) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, alert)
	return nil
}

func newFixture(budgetAmount, spent string, lastAlert *time.Time) (*mockBudgetStore, *mockAlertSender) {
	s := &mockBudgetStore{
		budgets: []models.Budget{
			{ID: "budget-1", UserID: "user-1", Amount: decimal.RequireFromString(budgetAmount), LastAlertSent: lastAlert},
		},
		users: map[string]*models.User{
			"user-1": {ID: "user-1", Email: "u1@example.com", Name: "User One"},
		},
		defaultAccount: map[string]*models.Account{
			"user-1": {ID: "acct-1", UserID: "user-1", Name: "Main", IsDefault: true},
		},
		expenses: map[string]decimal.Decimal{
			"acct-1": decimal.RequireFromString(spent),
		},
	}
	return s, &mockAlertSender{}
}

func newTestEvaluator(s Store, sender AlertSender, now time.Time) *Evaluator {
	e := NewEvaluator(s, sender, logger.NewWithWriter(&bytes.Buffer{}))
	e.now = func() time.Time { return now }
	return e
}

func TestCheckBudgets_AlertAt85Percent(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s, sender := newFixture("1000.00", "850.00", nil)
	e := newTestEvaluator(s, sender, now)

	alerts, err := e.CheckBudgets(context.Background())
	if err != nil {
		t.Fatalf("CheckBudgets() error = %v", err)
	}
	if alerts != 1 {
		t.Errorf("CheckBudgets() = %d alerts, want 1", alerts)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("Expected 1 alert email, got %d", len(sender.sent))
	}

	alert := sender.sent[0]
	if got := alert.PercentUsed.StringFixed(1); got != "85.0" {
		t.Errorf("PercentUsed = %s, want 85.0", got)
	}
	if stamped, ok := s.lastAlertSet["budget-1"]; !ok || !stamped.Equal(now) {
		t.Errorf("LastAlertSent = %v, want %v", stamped, now)
	}
}

func TestCheckBudgets_NoAlertBelowThreshold(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s, sender := newFixture("1000.00", "799.99", nil)
	e := newTestEvaluator(s, sender, now)

	alerts, err := e.CheckBudgets(context.Background())
	if err != nil {
		t.Fatalf("CheckBudgets() error = %v", err)
	}
	if alerts != 0 || len(sender.sent) != 0 {
		t.Errorf("Expected no alerts below 80%%, got %d", alerts)
	}
}

func TestCheckBudgets_SecondTickSameMonthIsSilent(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s, sender := newFixture("1000.00", "850.00", nil)
	e := newTestEvaluator(s, sender, now)

	if _, err := e.CheckBudgets(context.Background()); err != nil {
		t.Fatalf("First tick error = %v", err)
	}

	// Second tick six hours later, same month.
	e.now = func() time.Time { return now.Add(6 * time.Hour) }
	alerts, err := e.CheckBudgets(context.Background())
	if err != nil {
		t.Fatalf("Second tick error = %v", err)
	}
	if alerts != 0 {
		t.Errorf("Second tick sent %d alerts, want 0", alerts)
	}
	if len(sender.sent) != 1 {
		t.Errorf("Expected exactly 1 alert email in the month, got %d", len(sender.sent))
	}
}

func TestCheckBudgets_NextMonthMayAlertAgain(t *testing.T) {
	lastAlert := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)
	s, sender := newFixture("1000.00", "900.00", &lastAlert)
	e := newTestEvaluator(s, sender, now)

	alerts, err := e.CheckBudgets(context.Background())
	if err != nil {
		t.Fatalf("CheckBudgets() error = %v", err)
	}
	if alerts != 1 || len(sender.sent) != 1 {
		t.Errorf("Expected the alert to fire again in a new month, got %d", alerts)
	}
}

func TestCheckBudgets_ZeroBudgetIsGuarded(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s, sender := newFixture("0.00", "850.00", nil)
	e := newTestEvaluator(s, sender, now)

	alerts, err := e.CheckBudgets(context.Background())
	if err != nil {
		t.Fatalf("CheckBudgets() error = %v", err)
	}
	if alerts != 0 || len(sender.sent) != 0 {
		t.Error("Zero budget must yield percentUsed=0 and no alert")
	}
}

func TestCheckBudgets_SkipsUserWithoutDefaultAccount(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s, sender := newFixture("1000.00", "850.00", nil)
	delete(s.defaultAccount, "user-1")
	e := newTestEvaluator(s, sender, now)

	alerts, err := e.CheckBudgets(context.Background())
	if err != nil {
		t.Fatalf("CheckBudgets() error = %v", err)
	}
	if alerts != 0 || len(sender.sent) != 0 {
		t.Error("Users without a default account must be skipped")
	}
}

func TestCheckBudgets_SendFailureStillStampsMonth(t *testing.T) {
	// The contract is at most one attempt per month, not delivery: a failed
	// send still consumes the month's attempt.
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s, sender := newFixture("1000.00", "850.00", nil)
	sender.sendErr = errors.New("smtp unreachable")
	e := newTestEvaluator(s, sender, now)

	if _, err := e.CheckBudgets(context.Background()); err != nil {
		t.Fatalf("CheckBudgets() error = %v", err)
	}
	if _, ok := s.lastAlertSet["budget-1"]; !ok {
		t.Error("LastAlertSent must be stamped after an attempted send")
	}
}

func TestPercentUsed(t *testing.T) {
	tests := []struct {
		name   string
		total  string
		budget string
		want   string
	}{
		{name: "85 percent", total: "850", budget: "1000", want: "85.0"},
		{name: "over budget", total: "1200", budget: "1000", want: "120.0"},
		{name: "zero budget", total: "850", budget: "0", want: "0.0"},
		{name: "zero spend", total: "0", budget: "1000", want: "0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentUsed(decimal.RequireFromString(tt.total), decimal.RequireFromString(tt.budget))
			if got.StringFixed(1) != tt.want {
				t.Errorf("PercentUsed() = %s, want %s", got.StringFixed(1), tt.want)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	now := time.Date(2024, time.February, 15, 13, 45, 0, 0, time.UTC)
	from, to := MonthRange(now)

	if want := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
		t.Errorf("from = %v, want %v", from, want)
	}
	if want := time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC); !to.Equal(want) {
		t.Errorf("to = %v, want %v", to, want)
	}
}

func TestIsNewMonth(t *testing.T) {
	march := time.Date(2024, time.March, 31, 23, 0, 0, 0, time.UTC)
	april := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	marchNextYear := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	if isNewMonth(march, march.Add(time.Hour-time.Hour)) {
		t.Error("Same instant must not be a new month")
	}
	if !isNewMonth(march, april) {
		t.Error("March to April is a new month")
	}
	if !isNewMonth(march, marchNextYear) {
		t.Error("Same month in a different year is a new month")
	}
}
