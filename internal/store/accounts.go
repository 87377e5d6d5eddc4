package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dvloznov/wealth-tracker/internal/models"
)

// CreateAccount inserts a new account. A user's first account is always made
// the default; when the new account is flagged default, the previous default
// is cleared in the same transaction so at most one default ever exists.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Account{}).
			Where("user_id = ?", account.UserID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}

		if existing == 0 {
			account.IsDefault = true
		} else if account.IsDefault {
			if err := tx.Model(&models.Account{}).
				Where("user_id = ? AND is_default = ?", account.UserID, true).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("clear previous default: %w", err)
			}
		}

		if err := tx.Create(account).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		return nil
	})
}

// ListAccounts returns the user's accounts in creation order.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount fetches one account scoped by id and owning user.
func (s *Store) GetAccount(ctx context.Context, id, userID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&account).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// GetDefaultAccount returns the user's default account, or ErrNotFound when
// the user has no default account.
func (s *Store) GetDefaultAccount(ctx context.Context, userID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&account).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// SetDefaultAccount flags the given account as the user's default and clears
// the flag from every other account, atomically.
func (s *Store) SetDefaultAccount(ctx context.Context, id, userID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&account).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Model(&models.Account{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("clear previous default: %w", err)
		}
		if err := tx.Model(&account).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("set default: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	account.IsDefault = true
	return &account, nil
}

// CountTransactions returns how many transactions an account holds.
func (s *Store) CountTransactions(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}
