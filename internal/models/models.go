package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType is the kind of account a user holds.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSavings AccountType = "SAVINGS"
)

// TransactionType is the direction of a transaction. The amount always
// carries a non-negative magnitude; the sign is implied by the type.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// TransactionStatus is the processing state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusProcessed TransactionStatus = "PROCESSED"
)

// RecurringInterval is the cadence of a recurring transaction template.
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string    `gorm:"size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Account holds the authoritative balance. The balance is mutated only by
// transaction creation, deletion and recurring materialization, always inside
// the same DB transaction as the ledger write.
type Account struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string          `gorm:"type:uuid;index;not null" json:"user_id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Type      AccountType     `gorm:"size:16;not null" json:"type"`
	Balance   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance"`
	IsDefault bool            `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Transaction is both a concrete ledger entry and, when IsRecurring is set,
// the template for future entries. A recurring template's NextRecurringDate
// and LastProcessedAt are advanced in place each time it fires; the firing
// itself is recorded as a new non-recurring Transaction.
type Transaction struct {
	ID                string             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string             `gorm:"type:uuid;index;not null" json:"user_id"`
	AccountID         string             `gorm:"type:uuid;index;not null" json:"account_id"`
	Type              TransactionType    `gorm:"size:16;not null" json:"type"`
	Amount            decimal.Decimal    `gorm:"type:numeric(18,2);not null" json:"amount"`
	Description       string             `gorm:"size:255" json:"description"`
	Category          string             `gorm:"size:64;index" json:"category"`
	Date              time.Time          `gorm:"index;not null" json:"date"`
	ReceiptURL        *string            `gorm:"size:512" json:"receipt_url,omitempty"`
	IsRecurring       bool               `gorm:"index;not null;default:false" json:"is_recurring"`
	RecurringInterval *RecurringInterval `gorm:"size:16" json:"recurring_interval,omitempty"`
	LastProcessedAt   *time.Time         `json:"last_processed_at,omitempty"`
	NextRecurringDate *time.Time         `gorm:"index" json:"next_recurring_date,omitempty"`
	Status            TransactionStatus  `gorm:"size:16;not null;default:PROCESSED" json:"status"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Budget is the single monthly spending limit per user.
type Budget struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	LastAlertSent *time.Time      `json:"last_alert_sent,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// MonthlyReport records that a report email was sent for a user and period.
// The unique (user, period) index makes a retried report tick a no-op.
type MonthlyReport struct {
	ID     string `gorm:"type:uuid;primaryKey"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_report_user_period"`
	// Period is the reported month in "2006-01" form.
	Period string `gorm:"size:7;not null;uniqueIndex:idx_report_user_period"`
	SentAt time.Time
}

func (r *MonthlyReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
