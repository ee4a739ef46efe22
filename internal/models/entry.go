package models

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

// Side of a ledger entry.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// ValidSide reports whether s is one of the two entry sides.
func ValidSide(s Side) bool {
	return s == Debit || s == Credit
}

// Signed returns +x for a debit and -x for a credit.
func (s Side) Signed(x decimal.Decimal) decimal.Decimal {
	if s == Credit {
		return x.Neg()
	}
	return x
}

// EntryLine is one leg of a posting as supplied by the caller. It is
// transient; the persisted form is TransactionLine. ExchangeRate overrides
// the currency's stored rate for this line only; for the base currency the
// effective rate is always 1.
type EntryLine struct {
	Side            Side             `json:"side"`
	AccountFullName string           `json:"account_full_name"`
	Amount          decimal.Decimal  `json:"amount"`
	CurrencyCode    string           `json:"currency_code"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate,omitempty"`
}

// Normalize returns a copy with the currency code upper-cased and the account
// name trimmed segment by segment.
func (l EntryLine) Normalize() EntryLine {
	l.CurrencyCode = NormalizeCurrencyCode(l.CurrencyCode)
	l.AccountFullName = NormalizeFullName(l.AccountFullName)
	return l
}

// Validate checks the line's shape: side, positive amount, currency code
// format, non-empty account name. Existence checks belong to the validator
// that holds the currency and account sets.
func (l EntryLine) Validate() error {
	if !ValidSide(l.Side) {
		return apperrors.NewValidation("side", "must be DEBIT or CREDIT")
	}
	if !l.Amount.IsPositive() {
		return apperrors.NewValidation("amount", "must be positive")
	}
	if !ValidCurrencyCode(l.CurrencyCode) {
		return apperrors.NewValidation("currency_code", "must be 3-10 uppercase letters")
	}
	if !ValidFullName(l.AccountFullName) {
		return apperrors.NewValidation("account_full_name", "segments must be non-empty")
	}
	return nil
}
