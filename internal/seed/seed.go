// Package seed fills the database with demo data: one user, one default
// account and 90 days of randomized transactions.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-tracker/internal/models"
)

type categorySpec struct {
	name string
	min  float64
	max  float64
}

var incomeCategories = []categorySpec{
	{name: "salary", min: 5000, max: 8000},
	{name: "freelance", min: 1000, max: 3000},
	{name: "investments", min: 500, max: 2000},
	{name: "other-income", min: 100, max: 1000},
}

var expenseCategories = []categorySpec{
	{name: "housing", min: 1000, max: 2000},
	{name: "transportation", min: 100, max: 500},
	{name: "groceries", min: 200, max: 600},
	{name: "utilities", min: 100, max: 300},
	{name: "entertainment", min: 50, max: 200},
	{name: "food", min: 50, max: 150},
	{name: "shopping", min: 100, max: 500},
	{name: "healthcare", min: 100, max: 1000},
	{name: "education", min: 200, max: 1000},
	{name: "travel", min: 500, max: 2000},
}

// Store is the persistence surface seeding needs.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	CreateAccount(ctx context.Context, account *models.Account) error
	CreateTransaction(ctx context.Context, transaction *models.Transaction) error
	UpsertBudget(ctx context.Context, userID string, amount decimal.Decimal) (*models.Budget, error)
}

// Options controls the generated data set.
type Options struct {
	Email  string
	Name   string
	Days   int
	Budget decimal.Decimal
	Rand   *rand.Rand
	Now    time.Time
}

func (o *Options) defaults() {
	if o.Email == "" {
		o.Email = "demo@example.com"
	}
	if o.Name == "" {
		o.Name = "Demo User"
	}
	if o.Days <= 0 {
		o.Days = 90
	}
	if o.Budget.IsZero() {
		o.Budget = decimal.NewFromInt(5000)
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// Run creates the demo user, a default account, a budget and the transaction
// history. Returns the number of transactions created.
func Run(ctx context.Context, s Store, opts Options) (int, error) {
	opts.defaults()

	if existing, err := s.GetUserByEmail(ctx, opts.Email); err == nil && existing != nil {
		return 0, fmt.Errorf("seed: user %s already exists", opts.Email)
	}

	user := &models.User{Email: opts.Email, Name: opts.Name}
	if err := s.CreateUser(ctx, user); err != nil {
		return 0, fmt.Errorf("seed: create user: %w", err)
	}

	account := &models.Account{
		UserID:    user.ID,
		Name:      "Everyday",
		Type:      models.AccountTypeCurrent,
		IsDefault: true,
	}
	if err := s.CreateAccount(ctx, account); err != nil {
		return 0, fmt.Errorf("seed: create account: %w", err)
	}

	if _, err := s.UpsertBudget(ctx, user.ID, opts.Budget); err != nil {
		return 0, fmt.Errorf("seed: create budget: %w", err)
	}

	created := 0
	for i := opts.Days; i >= 0; i-- {
		date := opts.Now.AddDate(0, 0, -i)

		perDay := opts.Rand.Intn(3) + 1
		for j := 0; j < perDay; j++ {
			tx := randomTransaction(opts.Rand, user.ID, account.ID, date)
			if err := s.CreateTransaction(ctx, tx); err != nil {
				return created, fmt.Errorf("seed: create transaction: %w", err)
			}
			created++
		}
	}

	return created, nil
}

func randomTransaction(rng *rand.Rand, userID, accountID string, date time.Time) *models.Transaction {
	txType := models.TransactionTypeExpense
	categories := expenseCategories
	verb := "Paid for"
	if rng.Float64() < 0.4 {
		txType = models.TransactionTypeIncome
		categories = incomeCategories
		verb = "Received"
	}

	spec := categories[rng.Intn(len(categories))]
	amount := randomAmount(rng, spec.min, spec.max)

	return &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Type:        txType,
		Amount:      amount,
		Description: fmt.Sprintf("%s %s", verb, spec.name),
		Category:    spec.name,
		Date:        date,
		Status:      models.TransactionStatusProcessed,
	}
}

func randomAmount(rng *rand.Rand, min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(rng.Float64()*(max-min) + min).Round(2)
}
