package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dvloznov/wealth-tracker/internal/models"
)

// RecordMonthlyReport inserts the idempotency record for a sent report.
// It returns false when a report for this user and period already exists,
// which makes a retried report tick a safe no-op.
func (s *Store) RecordMonthlyReport(ctx context.Context, userID, period string, sentAt time.Time) (bool, error) {
	report := models.MonthlyReport{
		UserID: userID,
		Period: period,
		SentAt: sentAt,
	}
	err := s.db.WithContext(ctx).Create(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("record monthly report: %w", err)
	}
	return true, nil
}
