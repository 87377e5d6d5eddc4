package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/dvloznov/wealth-tracker/internal/models"
)

// ListBudgets returns every budget. The evaluator iterates all of them each
// tick; one budget per user is enforced by the unique index on user_id.
func (s *Store) ListBudgets(ctx context.Context) ([]models.Budget, error) {
	var budgets []models.Budget
	if err := s.db.WithContext(ctx).Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// GetBudget returns the user's budget, or ErrNotFound.
func (s *Store) GetBudget(ctx context.Context, userID string) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&budget).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &budget, nil
}

// UpsertBudget creates the user's budget or updates its amount.
func (s *Store) UpsertBudget(ctx context.Context, userID string, amount decimal.Decimal) (*models.Budget, error) {
	budget := models.Budget{
		UserID: userID,
		Amount: amount,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"amount": amount}),
		}).
		Create(&budget).Error
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}
	return s.GetBudget(ctx, userID)
}

// UpdateLastAlertSent stamps the budget after an alert attempt.
func (s *Store) UpdateLastAlertSent(ctx context.Context, budgetID string, sentAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.Budget{}).
		Where("id = ?", budgetID).
		Update("last_alert_sent", sentAt).Error
	if err != nil {
		return fmt.Errorf("update last alert sent: %w", err)
	}
	return nil
}
