package models

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

// ExchangeRateEvent is one append-only audit record of an FX rate change.
// Events are never updated; only the TTL executor deletes or archives them.
type ExchangeRateEvent struct {
	ID            string          `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	Code          string          `json:"code" gorm:"column:code;type:varchar(10);not null;index"`
	Rate          decimal.Decimal `json:"rate" gorm:"column:rate;type:decimal(30,6);not null"`
	OccurredAt    time.Time       `json:"occurred_at" gorm:"column:occurred_at;not null;index"`
	PolicyApplied string          `json:"policy_applied" gorm:"column:policy_applied;type:varchar(255);not null"`
	Source        *string         `json:"source,omitempty" gorm:"column:source;type:varchar(255)"`
}

// TableName returns the table name for the ExchangeRateEvent model
func (ExchangeRateEvent) TableName() string {
	return "exchange_rate_events"
}

// Validate validates the event data.
func (e *ExchangeRateEvent) Validate() error {
	if !ValidCurrencyCode(e.Code) {
		return apperrors.NewValidation("code", "must be 3-10 uppercase letters")
	}
	if !e.Rate.IsPositive() {
		return apperrors.NewValidation("rate", "must be positive")
	}
	if e.OccurredAt.IsZero() {
		return apperrors.NewValidation("occurred_at", "is required")
	}
	return nil
}

// ExchangeRateEventArchive is the archived form of an event, written by the
// TTL executor in archive mode.
type ExchangeRateEventArchive struct {
	ID            string          `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	Code          string          `json:"code" gorm:"column:code;type:varchar(10);not null;index"`
	Rate          decimal.Decimal `json:"rate" gorm:"column:rate;type:decimal(30,6);not null"`
	OccurredAt    time.Time       `json:"occurred_at" gorm:"column:occurred_at;not null"`
	PolicyApplied string          `json:"policy_applied" gorm:"column:policy_applied;type:varchar(255);not null"`
	Source        *string         `json:"source,omitempty" gorm:"column:source;type:varchar(255)"`
	ArchivedAt    time.Time       `json:"archived_at" gorm:"column:archived_at;not null"`
}

// TableName returns the table name for the ExchangeRateEventArchive model
func (ExchangeRateEventArchive) TableName() string {
	return "exchange_rate_events_archive"
}
