package services

import (
	"testing"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
)

func testQuantizer() models.Quantizer {
	return models.Quantizer{MoneyScale: 2, RateScale: 6, Mode: models.RoundHalfEven}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func testCurrency(code, rate string, isBase bool) *models.Currency {
	c := &models.Currency{Code: code, IsBase: isBase}
	if rate != "" {
		d, _ := decimal.NewFromString(rate)
		c.ExchangeRate = &d
	}
	return c
}

func testRefData() (map[string]*models.Currency, *models.Currency, map[string]*models.Account) {
	usd := testCurrency("USD", "", true)
	eur := testCurrency("EUR", "1.10", false)
	currencies := map[string]*models.Currency{"USD": usd, "EUR": eur}
	accounts := map[string]*models.Account{
		"Assets:Cash":     {ID: "a1", FullName: "Assets:Cash", CurrencyCode: "USD"},
		"Assets:Cash:EUR": {ID: "a2", FullName: "Assets:Cash:EUR", CurrencyCode: "EUR"},
		"Income:Sales":    {ID: "a3", FullName: "Income:Sales", CurrencyCode: "USD"},
	}
	return currencies, usd, accounts
}

func TestValidateBalancedSingleCurrency(t *testing.T) {
	currencies, base, accounts := testRefData()
	lines := []models.EntryLine{
		{Side: models.Debit, AccountFullName: "Assets:Cash", Amount: dec(t, "100"), CurrencyCode: "USD"},
		{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "100"), CurrencyCode: "USD"},
	}
	if err := validateEntrySet(lines, currencies, base, accounts, testQuantizer()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateBalancedAfterConversion(t *testing.T) {
	currencies, base, accounts := testRefData()
	// 100 EUR at 1.10 converts to 110.00 base units.
	lines := []models.EntryLine{
		{Side: models.Debit, AccountFullName: "Assets:Cash:EUR", Amount: dec(t, "100"), CurrencyCode: "EUR"},
		{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "110"), CurrencyCode: "USD"},
	}
	if err := validateEntrySet(lines, currencies, base, accounts, testQuantizer()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateLineRateOverridesStored(t *testing.T) {
	currencies, base, accounts := testRefData()
	lines := []models.EntryLine{
		{Side: models.Debit, AccountFullName: "Assets:Cash:EUR", Amount: dec(t, "100"), CurrencyCode: "EUR", ExchangeRate: decPtr(t, "1.25")},
		{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "125"), CurrencyCode: "USD"},
	}
	if err := validateEntrySet(lines, currencies, base, accounts, testQuantizer()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateUnbalancedIsDomainError(t *testing.T) {
	currencies, base, accounts := testRefData()
	lines := []models.EntryLine{
		{Side: models.Debit, AccountFullName: "Assets:Cash", Amount: dec(t, "100"), CurrencyCode: "USD"},
		{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "90"), CurrencyCode: "USD"},
	}
	err := validateEntrySet(lines, currencies, base, accounts, testQuantizer())
	if !apperrors.IsDomain(err) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestValidateFailureOrdering(t *testing.T) {
	currencies, base, accounts := testRefData()

	tests := []struct {
		name  string
		lines []models.EntryLine
		base  *models.Currency
		check func(error) bool
	}{
		{
			"empty set",
			nil, base,
			apperrors.IsValidation,
		},
		{
			"bad side",
			[]models.EntryLine{{Side: "BOTH", AccountFullName: "Assets:Cash", Amount: dec(t, "1"), CurrencyCode: "USD"}},
			base,
			apperrors.IsValidation,
		},
		{
			"non-positive amount",
			[]models.EntryLine{{Side: models.Debit, AccountFullName: "Assets:Cash", Amount: decimal.Zero, CurrencyCode: "USD"}},
			base,
			apperrors.IsValidation,
		},
		{
			"malformed currency code",
			[]models.EntryLine{{Side: models.Debit, AccountFullName: "Assets:Cash", Amount: dec(t, "1"), CurrencyCode: "us"}},
			base,
			apperrors.IsValidation,
		},
		{
			"unknown account",
			[]models.EntryLine{{Side: models.Debit, AccountFullName: "Assets:Gold", Amount: dec(t, "1"), CurrencyCode: "USD"}},
			base,
			apperrors.IsNotFound,
		},
		{
			"no base currency",
			[]models.EntryLine{{Side: models.Debit, AccountFullName: "Assets:Cash", Amount: dec(t, "1"), CurrencyCode: "USD"}},
			nil,
			apperrors.IsValidation,
		},
		{
			"unknown currency",
			[]models.EntryLine{{Side: models.Debit, AccountFullName: "Assets:Cash", Amount: dec(t, "1"), CurrencyCode: "CHF"}},
			base,
			apperrors.IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateEntrySet(tt.lines, currencies, tt.base, accounts, testQuantizer())
			if err == nil || !tt.check(err) {
				t.Errorf("wrong error class: %v", err)
			}
		})
	}
}

func TestValidateRateResolution(t *testing.T) {
	currencies, base, accounts := testRefData()
	noRate := testCurrency("GBP", "", false)
	currencies["GBP"] = noRate
	accounts["Assets:Cash:GBP"] = &models.Account{ID: "a5", FullName: "Assets:Cash:GBP", CurrencyCode: "GBP"}

	t.Run("missing rate", func(t *testing.T) {
		lines := []models.EntryLine{
			{Side: models.Debit, AccountFullName: "Assets:Cash:GBP", Amount: dec(t, "1"), CurrencyCode: "GBP"},
			{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "1"), CurrencyCode: "USD"},
		}
		err := validateEntrySet(lines, currencies, base, accounts, testQuantizer())
		if !apperrors.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("non-positive line rate", func(t *testing.T) {
		lines := []models.EntryLine{
			{Side: models.Debit, AccountFullName: "Assets:Cash:EUR", Amount: dec(t, "1"), CurrencyCode: "EUR", ExchangeRate: decPtr(t, "0")},
			{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "1"), CurrencyCode: "USD"},
		}
		err := validateEntrySet(lines, currencies, base, accounts, testQuantizer())
		if !apperrors.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestValidateQuantizesBeforeSumming(t *testing.T) {
	currencies, base, accounts := testRefData()
	// 33.335 EUR at 1.10 is 36.6685, which quantizes to 36.67; the USD side
	// must match the quantized amount, not the raw product.
	lines := []models.EntryLine{
		{Side: models.Debit, AccountFullName: "Assets:Cash:EUR", Amount: dec(t, "33.335"), CurrencyCode: "EUR"},
		{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "36.67"), CurrencyCode: "USD"},
	}
	if err := validateEntrySet(lines, currencies, base, accounts, testQuantizer()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
