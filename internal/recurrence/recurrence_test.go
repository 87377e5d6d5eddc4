package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/wealth-tracker/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDate(t *testing.T) {
	tests := []struct {
		name     string
		from     time.Time
		interval models.RecurringInterval
		want     time.Time
	}{
		{
			name:     "daily",
			from:     date(2024, time.March, 15),
			interval: models.IntervalDaily,
			want:     date(2024, time.March, 16),
		},
		{
			name:     "daily across month boundary",
			from:     date(2024, time.January, 31),
			interval: models.IntervalDaily,
			want:     date(2024, time.February, 1),
		},
		{
			name:     "weekly",
			from:     date(2024, time.March, 15),
			interval: models.IntervalWeekly,
			want:     date(2024, time.March, 22),
		},
		{
			name:     "weekly across year boundary",
			from:     date(2023, time.December, 28),
			interval: models.IntervalWeekly,
			want:     date(2024, time.January, 4),
		},
		{
			name:     "monthly plain",
			from:     date(2024, time.March, 15),
			interval: models.IntervalMonthly,
			want:     date(2024, time.April, 15),
		},
		{
			name:     "monthly clamps to leap february",
			from:     date(2024, time.January, 31),
			interval: models.IntervalMonthly,
			want:     date(2024, time.February, 29),
		},
		{
			name:     "monthly clamps to non-leap february",
			from:     date(2023, time.January, 31),
			interval: models.IntervalMonthly,
			want:     date(2023, time.February, 28),
		},
		{
			name:     "monthly 31st to 30-day month",
			from:     date(2024, time.March, 31),
			interval: models.IntervalMonthly,
			want:     date(2024, time.April, 30),
		},
		{
			name:     "monthly december wraps year",
			from:     date(2024, time.December, 31),
			interval: models.IntervalMonthly,
			want:     date(2025, time.January, 31),
		},
		{
			name:     "yearly",
			from:     date(2024, time.March, 15),
			interval: models.IntervalYearly,
			want:     date(2025, time.March, 15),
		},
		{
			name:     "yearly clamps leap day",
			from:     date(2024, time.February, 29),
			interval: models.IntervalYearly,
			want:     date(2025, time.February, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDate(tt.from, tt.interval)
			if err != nil {
				t.Fatalf("NextDate() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextDate_AlwaysAdvances(t *testing.T) {
	intervals := []models.RecurringInterval{
		models.IntervalDaily,
		models.IntervalWeekly,
		models.IntervalMonthly,
		models.IntervalYearly,
	}

	// Sweep every day of a leap year and the following year.
	from := date(2024, time.January, 1)
	for day := 0; day < 731; day++ {
		cur := from.AddDate(0, 0, day)
		for _, interval := range intervals {
			next, err := NextDate(cur, interval)
			if err != nil {
				t.Fatalf("NextDate(%v, %s) error = %v", cur, interval, err)
			}
			if !next.After(cur) {
				t.Fatalf("NextDate(%v, %s) = %v, did not advance", cur, interval, next)
			}
			// Deterministic: same input, same output.
			again, _ := NextDate(cur, interval)
			if !again.Equal(next) {
				t.Fatalf("NextDate(%v, %s) not deterministic: %v vs %v", cur, interval, next, again)
			}
		}
	}
}

func TestNextDate_PreservesClock(t *testing.T) {
	from := time.Date(2024, time.January, 31, 9, 30, 15, 0, time.UTC)
	got, err := NextDate(from, models.IntervalMonthly)
	if err != nil {
		t.Fatalf("NextDate() error = %v", err)
	}
	want := time.Date(2024, time.February, 29, 9, 30, 15, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextDate() = %v, want %v", got, want)
	}
}

func TestNextDate_InvalidInterval(t *testing.T) {
	_, err := NextDate(date(2024, time.March, 15), models.RecurringInterval("FORTNIGHTLY"))
	if err == nil {
		t.Fatal("Expected error for unknown interval, got nil")
	}
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("Expected ErrInvalidInterval, got %v", err)
	}

	_, err = NextDate(date(2024, time.March, 15), models.RecurringInterval(""))
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("Expected ErrInvalidInterval for empty interval, got %v", err)
	}
}

func TestIsDue(t *testing.T) {
	now := date(2024, time.February, 1)
	yesterday := date(2024, time.January, 31)
	tomorrow := date(2024, time.February, 2)

	tests := []struct {
		name          string
		lastProcessed *time.Time
		nextDue       *time.Time
		want          bool
	}{
		{
			name:          "never processed is always due",
			lastProcessed: nil,
			nextDue:       &tomorrow,
			want:          true,
		},
		{
			name:          "due date passed",
			lastProcessed: &yesterday,
			nextDue:       &yesterday,
			want:          true,
		},
		{
			name:          "due date is exactly now",
			lastProcessed: &yesterday,
			nextDue:       &now,
			want:          true,
		},
		{
			name:          "due date in the future",
			lastProcessed: &yesterday,
			nextDue:       &tomorrow,
			want:          false,
		},
		{
			name:          "processed but no next due date",
			lastProcessed: &yesterday,
			nextDue:       nil,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.lastProcessed, tt.nextDue, now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTemplateDue(t *testing.T) {
	now := date(2024, time.February, 1)
	past := date(2024, time.January, 15)
	interval := models.IntervalMonthly

	base := models.Transaction{
		IsRecurring:       true,
		RecurringInterval: &interval,
		Status:            models.TransactionStatusProcessed,
		LastProcessedAt:   &past,
		NextRecurringDate: &past,
	}

	due := base
	if !IsTemplateDue(&due, now) {
		t.Error("Expected due template to be detected")
	}

	notRecurring := base
	notRecurring.IsRecurring = false
	if IsTemplateDue(&notRecurring, now) {
		t.Error("Non-recurring transaction must never be due")
	}

	pending := base
	pending.Status = models.TransactionStatusPending
	if IsTemplateDue(&pending, now) {
		t.Error("Pending template must not be due")
	}

	if IsTemplateDue(nil, now) {
		t.Error("Nil transaction must not be due")
	}
}
