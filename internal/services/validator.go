package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
)

// validateEntrySet runs the ledger checks over an already-normalized line
// set. Checks run in a fixed order and the first failure stops:
//
//  1. line set non-empty
//  2. per line: side, positive amount, currency code format, account exists
//  3. a base currency is defined
//  4. every referenced currency exists
//  5. every non-base line has a positive effective rate
//  6. the signed sum of quantized base amounts is zero
//
// currencies and accounts hold the resolved reference data; base may be nil
// when the ledger has no base currency.
func validateEntrySet(
	lines []models.EntryLine,
	currencies map[string]*models.Currency,
	base *models.Currency,
	accounts map[string]*models.Account,
	quantizer models.Quantizer,
) error {
	if len(lines) == 0 {
		return apperrors.NewValidation("lines", "entry set must not be empty")
	}

	for i, line := range lines {
		if !models.ValidSide(line.Side) {
			return apperrors.NewValidation(fmt.Sprintf("lines[%d].side", i), "must be DEBIT or CREDIT")
		}
		if !line.Amount.IsPositive() {
			return apperrors.NewValidation(fmt.Sprintf("lines[%d].amount", i), "must be positive")
		}
		if !models.ValidCurrencyCode(line.CurrencyCode) {
			return apperrors.NewValidation(fmt.Sprintf("lines[%d].currency_code", i), "must be 3-10 uppercase letters")
		}
		if _, ok := accounts[line.AccountFullName]; !ok {
			return apperrors.NewNotFound("account", line.AccountFullName)
		}
	}

	if base == nil {
		return apperrors.NewValidation("base_currency", "no base currency is defined")
	}

	for _, line := range lines {
		if _, ok := currencies[line.CurrencyCode]; !ok {
			return apperrors.NewNotFound("currency", line.CurrencyCode)
		}
	}

	balance := decimal.Zero
	for i, line := range lines {
		rate, err := effectiveRate(line, currencies[line.CurrencyCode], i)
		if err != nil {
			return err
		}
		baseAmount := quantizer.Money(line.Amount.Mul(rate))
		balance = balance.Add(line.Side.Signed(baseAmount))
	}
	if !quantizer.Money(balance).IsZero() {
		return apperrors.NewDomain(fmt.Sprintf("entry set does not balance in base currency: off by %s", balance.String()))
	}
	return nil
}

// effectiveRate resolves the rate converting one line into the base currency:
// 1 for the base currency, otherwise the line-provided rate, otherwise the
// currency's stored rate. A missing or non-positive rate is a validation error.
func effectiveRate(line models.EntryLine, currency *models.Currency, idx int) (decimal.Decimal, error) {
	if currency.IsBase {
		return decimal.NewFromInt(1), nil
	}
	if line.ExchangeRate != nil {
		if !line.ExchangeRate.IsPositive() {
			return decimal.Decimal{}, apperrors.NewValidation(
				fmt.Sprintf("lines[%d].exchange_rate", idx), "must be positive")
		}
		return *line.ExchangeRate, nil
	}
	rate, ok := currency.Rate()
	if !ok || !rate.IsPositive() {
		return decimal.Decimal{}, apperrors.NewValidation(
			fmt.Sprintf("lines[%d].exchange_rate", idx),
			fmt.Sprintf("currency %s has no positive rate", currency.Code))
	}
	return rate, nil
}
