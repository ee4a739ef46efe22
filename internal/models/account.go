package models

import (
	"strings"
	"time"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

// Account is a ledger account identified by a colon-separated hierarchical
// name, e.g. "Assets:Cash:EUR". Accounts are created once; the full name and
// currency never change.
type Account struct {
	ID           string    `json:"id" gorm:"primaryKey;column:id;type:varchar(64)"`
	FullName     string    `json:"full_name" gorm:"column:full_name;type:varchar(255);not null;uniqueIndex"`
	CurrencyCode string    `json:"currency_code" gorm:"column:currency_code;type:varchar(10);not null;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

// NormalizeFullName trims the name and every segment around the colon
// separators. "  Assets : Cash " becomes "Assets:Cash".
func NormalizeFullName(name string) string {
	parts := strings.Split(strings.TrimSpace(name), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ":")
}

// ValidFullName reports whether a normalized account name is well-formed:
// non-empty with every segment non-empty.
func ValidFullName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ":") {
		if part == "" {
			return false
		}
	}
	return true
}

// Validate validates the account data.
func (a *Account) Validate() error {
	if !ValidFullName(a.FullName) {
		return apperrors.NewValidation("full_name", "segments must be non-empty")
	}
	if !ValidCurrencyCode(a.CurrencyCode) {
		return apperrors.NewValidation("currency_code", "must be 3-10 uppercase letters")
	}
	return nil
}
