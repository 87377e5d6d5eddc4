// Package recurrence implements the schedule arithmetic for recurring
// transactions: computing the next due date for an interval and deciding
// whether a template is due for processing.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/wealth-tracker/internal/models"
)

// ErrInvalidInterval is returned for an unrecognized recurring interval.
// An unknown interval must fail loudly; silently leaving the date unchanged
// would make the template fire on every scheduler tick forever.
var ErrInvalidInterval = errors.New("invalid recurring interval")

// NextDate returns the next due date after from for the given interval.
// It is pure and deterministic.
//
// MONTHLY advances by one calendar month, clamping to the last day when the
// source day does not exist in the target month (Jan 31 -> Feb 29 in a leap
// year, Feb 28 otherwise). YEARLY clamps Feb 29 to Feb 28 in non-leap years.
func NextDate(from time.Time, interval models.RecurringInterval) (time.Time, error) {
	switch interval {
	case models.IntervalDaily:
		return from.AddDate(0, 0, 1), nil
	case models.IntervalWeekly:
		return from.AddDate(0, 0, 7), nil
	case models.IntervalMonthly:
		return addMonthsClamped(from, 1), nil
	case models.IntervalYearly:
		return addMonthsClamped(from, 12), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
}

// addMonthsClamped adds months to t, clamping the day of month instead of
// letting it overflow into the following month the way AddDate does.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	// Normalize the target year/month with a day of 1 so the month itself
	// can never overflow.
	first := time.Date(year, month+time.Month(months), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsDue reports whether a recurring template should fire at now.
// A template that has never been processed is always due; otherwise it is due
// once its scheduled date has arrived or passed (nextDue <= now).
func IsDue(lastProcessed, nextDue *time.Time, now time.Time) bool {
	if lastProcessed == nil {
		return true
	}
	if nextDue == nil {
		return false
	}
	return !nextDue.After(now)
}

// IsTemplateDue applies the full detector contract: only recurring,
// processed templates are considered at all.
func IsTemplateDue(tx *models.Transaction, now time.Time) bool {
	if tx == nil || !tx.IsRecurring || tx.Status != models.TransactionStatusProcessed {
		return false
	}
	return IsDue(tx.LastProcessedAt, tx.NextRecurringDate, now)
}
