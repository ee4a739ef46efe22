package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

// currencyCodePattern matches normalized currency codes: 3 to 10 uppercase letters.
var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3,10}$`)

// Currency is a unit of account. At most one currency is the base; the base
// carries no exchange rate, every other currency used in a posting must carry
// a positive rate into the base.
type Currency struct {
	Code         string           `json:"code" gorm:"primaryKey;column:code;type:varchar(10)"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate" gorm:"column:exchange_rate;type:decimal(30,6)"`
	IsBase       bool             `json:"is_base" gorm:"column:is_base;not null;default:false;index:idx_currencies_single_base,unique,where:is_base"`
	CreatedAt    time.Time        `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for the Currency model
func (Currency) TableName() string {
	return "currencies"
}

// NormalizeCurrencyCode upper-cases and trims a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCurrencyCode reports whether code (already normalized) is well-formed.
func ValidCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}

// Validate validates the currency invariants.
func (c *Currency) Validate() error {
	if !ValidCurrencyCode(c.Code) {
		return apperrors.NewValidation("code", "must be 3-10 uppercase letters")
	}
	if c.IsBase {
		if c.ExchangeRate != nil {
			return apperrors.NewValidation("exchange_rate", "base currency must not carry a rate")
		}
		return nil
	}
	if c.ExchangeRate != nil && !c.ExchangeRate.IsPositive() {
		return apperrors.NewValidation("exchange_rate", "must be positive")
	}
	return nil
}

// Rate returns the stored exchange rate, or false when the currency has none.
func (c *Currency) Rate() (decimal.Decimal, bool) {
	if c.IsBase {
		return decimal.NewFromInt(1), true
	}
	if c.ExchangeRate == nil {
		return decimal.Decimal{}, false
	}
	return *c.ExchangeRate, true
}
