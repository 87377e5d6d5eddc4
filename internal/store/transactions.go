package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dvloznov/wealth-tracker/internal/models"
)

// BalanceDelta returns the signed effect of a transaction on its account:
// +amount for INCOME, -amount for EXPENSE.
func BalanceDelta(txType models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == models.TransactionTypeIncome {
		return amount
	}
	return amount.Neg()
}

// CreateTransaction inserts a ledger entry and applies its balance delta to
// the owning account in one transaction. The increment is expressed in SQL so
// concurrent writers cannot lose updates.
func (s *Store) CreateTransaction(ctx context.Context, transaction *models.Transaction) error {
	delta := BalanceDelta(transaction.Type, transaction.Amount)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if err := tx.Model(&models.Account{}).
			Where("id = ?", transaction.AccountID).
			Update("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
			return fmt.Errorf("apply balance delta: %w", err)
		}
		return nil
	})
}

// GetTransaction fetches one transaction scoped by id and owning user.
func (s *Store) GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&transaction).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &transaction, nil
}

// ListAccountTransactions returns an account's transactions, newest first.
func (s *Store) ListAccountTransactions(ctx context.Context, accountID, userID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND user_id = ?", accountID, userID).
		Order("date desc").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("list account transactions: %w", err)
	}
	return transactions, nil
}

// ListTransactionsInRange returns a user's transactions with dates in
// [from, to], across all accounts.
func (s *Store) ListTransactionsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date asc").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return transactions, nil
}

// DeleteTransactions removes the given transactions and reverses their
// balance effect on each owning account, all in one transaction.
func (s *Store) DeleteTransactions(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var transactions []models.Transaction
		if err := tx.Where("id IN ? AND user_id = ?", ids, userID).
			Find(&transactions).Error; err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}

		// Reversing a delete means applying the opposite delta: deleting an
		// EXPENSE re-credits the account, deleting an INCOME re-debits it.
		reversals := make(map[string]decimal.Decimal)
		for _, t := range transactions {
			reversals[t.AccountID] = reversals[t.AccountID].Sub(BalanceDelta(t.Type, t.Amount))
		}

		if err := tx.Where("id IN ? AND user_id = ?", ids, userID).
			Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}

		for accountID, delta := range reversals {
			if err := tx.Model(&models.Account{}).
				Where("id = ?", accountID).
				Update("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
				return fmt.Errorf("reconcile account %s: %w", accountID, err)
			}
		}
		return nil
	})
}

// ListDueRecurring returns every recurring, processed template that has never
// fired or whose next due date has arrived.
func (s *Store) ListDueRecurring(ctx context.Context, now time.Time) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.db.WithContext(ctx).
		Where("is_recurring = ? AND status = ?", true, models.TransactionStatusProcessed).
		Where("last_processed_at IS NULL OR next_recurring_date <= ?", now).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("list due recurring: %w", err)
	}
	return transactions, nil
}

// ApplyMaterialization commits one recurring firing: the derived ledger
// entry, the account balance increment, and the template's schedule advance.
// All three writes commit or roll back together.
func (s *Store) ApplyMaterialization(ctx context.Context, derived *models.Transaction, templateID string, processedAt, nextDue time.Time) error {
	delta := BalanceDelta(derived.Type, derived.Amount)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(derived).Error; err != nil {
			return fmt.Errorf("create derived transaction: %w", err)
		}
		if err := tx.Model(&models.Account{}).
			Where("id = ?", derived.AccountID).
			Update("balance", gorm.Expr("balance + ?", delta)).Error; err != nil {
			return fmt.Errorf("apply balance delta: %w", err)
		}
		if err := tx.Model(&models.Transaction{}).
			Where("id = ?", templateID).
			Updates(map[string]interface{}{
				"last_processed_at":   processedAt,
				"next_recurring_date": nextDue,
			}).Error; err != nil {
			return fmt.Errorf("advance template: %w", err)
		}
		return nil
	})
}

// SumExpenses totals EXPENSE transactions for an account within [from, to].
func (s *Store) SumExpenses(ctx context.Context, userID, accountID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND account_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, accountID, models.TransactionTypeExpense, from, to).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}
