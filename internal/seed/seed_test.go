package seed

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/models"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

type fakeStore struct {
	users        []*models.User
	accounts     []*models.Account
	transactions []*models.Transaction
	budgets      map[string]decimal.Decimal
}

func newFakeStore() *fakeStore {
	return &fakeStore{budgets: map[string]decimal.Decimal{}}
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = "user-seed"
	f.users = append(f.users, user)
	return nil
}

func (f *fakeStore) CreateAccount(ctx context.Context, account *models.Account) error {
	account.ID = "acct-seed"
	f.accounts = append(f.accounts, account)
	return nil
}

func (f *fakeStore) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	f.transactions = append(f.transactions, transaction)
	return nil
}

func (f *fakeStore) UpsertBudget(ctx context.Context, userID string, amount decimal.Decimal) (*models.Budget, error) {
	f.budgets[userID] = amount
	return &models.Budget{UserID: userID, Amount: amount}, nil
}

func TestRun(t *testing.T) {
	fake := newFakeStore()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	created, err := Run(context.Background(), fake, Options{
		Days: 30,
		Rand: rand.New(rand.NewSource(1)),
		Now:  now,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(fake.users) != 1 {
		t.Fatalf("users = %d, want 1", len(fake.users))
	}
	if len(fake.accounts) != 1 || !fake.accounts[0].IsDefault {
		t.Fatal("expected one default account")
	}
	if _, ok := fake.budgets["user-seed"]; !ok {
		t.Error("budget not created")
	}

	// Between 1 and 3 transactions per day over 31 days.
	if created < 31 || created > 93 {
		t.Errorf("created = %d, want within [31, 93]", created)
	}
	if created != len(fake.transactions) {
		t.Errorf("created = %d but stored %d", created, len(fake.transactions))
	}

	for _, tx := range fake.transactions {
		if !tx.Amount.IsPositive() {
			t.Fatalf("non-positive amount %s", tx.Amount)
		}
		if tx.Status != models.TransactionStatusProcessed {
			t.Fatalf("status = %q", tx.Status)
		}
		if tx.Date.After(now) {
			t.Fatalf("transaction dated in the future: %v", tx.Date)
		}
		if tx.Date.Before(now.AddDate(0, 0, -30)) {
			t.Fatalf("transaction older than window: %v", tx.Date)
		}
	}
}

func TestRandomAmountWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	min, max := decimal.NewFromInt(100), decimal.NewFromInt(500)

	for i := 0; i < 100; i++ {
		amount := randomAmount(rng, 100, 500)
		if amount.LessThan(min) || amount.GreaterThan(max) {
			t.Fatalf("amount %s outside [100, 500]", amount)
		}
	}
}
