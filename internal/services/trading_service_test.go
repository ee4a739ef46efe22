package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
)

func seedMixedPostings(t *testing.T, env *testEnv) {
	t.Helper()
	env.mustPost(t, []models.EntryLine{
		{Side: models.Debit, AccountFullName: "Assets:Cash:EUR", Amount: dec(t, "100"), CurrencyCode: "EUR"},
		{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, "110"), CurrencyCode: "USD"},
	}, nil)
	env.clock.advance(time.Minute)
	env.mustPost(t, simpleTransfer(t, "40"), nil)
}

func TestRawAggregatesPerCurrency(t *testing.T) {
	env := newTestEnv(t)
	env.seedUSDBase(t)
	env.seedEUR(t, "1.10")
	seedMixedPostings(t, env)

	raw, err := env.trading.Raw(context.Background(), models.TradingFilter{})
	require.NoError(t, err)
	require.Len(t, raw, 2)

	// Sorted ascending by currency code.
	assert.Equal(t, "EUR", raw[0].CurrencyCode)
	assert.Equal(t, "100.00", raw[0].Debit.StringFixed(2))
	assert.Equal(t, "0.00", raw[0].Credit.StringFixed(2))
	assert.Equal(t, "100.00", raw[0].Net.StringFixed(2))

	assert.Equal(t, "USD", raw[1].CurrencyCode)
	assert.Equal(t, "40.00", raw[1].Debit.StringFixed(2))
	assert.Equal(t, "150.00", raw[1].Credit.StringFixed(2))
	assert.Equal(t, "-110.00", raw[1].Net.StringFixed(2))
}

func TestRawWindowAndMetaFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedUSDBase(t)
	ctx := context.Background()

	env.mustPost(t, simpleTransfer(t, "10"), models.Meta{"ref": "a"})
	cut := env.clock.Now().Add(30 * time.Second)
	env.clock.advance(time.Minute)
	env.mustPost(t, simpleTransfer(t, "20"), models.Meta{"ref": "b"})

	raw, err := env.trading.Raw(ctx, models.TradingFilter{End: &cut})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "10.00", raw[0].Debit.StringFixed(2))

	raw, err = env.trading.Raw(ctx, models.TradingFilter{Meta: models.Meta{"ref": "b"}})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "20.00", raw[0].Debit.StringFixed(2))

	start := env.clock.Now().Add(time.Hour)
	end := env.clock.Now()
	_, err = env.trading.Raw(ctx, models.TradingFilter{Start: &start, End: &end})
	require.True(t, apperrors.IsValidation(err), "got %v", err)
}

func TestDetailedConvertsToBase(t *testing.T) {
	env := newTestEnv(t)
	env.seedUSDBase(t)
	env.seedEUR(t, "1.10")
	seedMixedPostings(t, env)

	detailed, err := env.trading.Detailed(context.Background(), models.TradingFilter{}, "")
	require.NoError(t, err)
	require.Len(t, detailed, 2)

	eur := detailed[0]
	assert.Equal(t, "EUR", eur.CurrencyCode)
	assert.Equal(t, "1.100000", eur.UsedRate.StringFixed(6))
	assert.Equal(t, "110.00", eur.DebitBase.StringFixed(2))
	assert.Equal(t, "0.00", eur.CreditBase.StringFixed(2))
	assert.Equal(t, "110.00", eur.NetBase.StringFixed(2))

	usd := detailed[1]
	assert.Equal(t, "USD", usd.CurrencyCode)
	assert.Equal(t, "1.000000", usd.UsedRate.StringFixed(6))
	assert.Equal(t, "-110.00", usd.NetBase.StringFixed(2))

	// Balanced books convert to a zero net in base currency.
	total := decimal.Zero
	for _, line := range detailed {
		total = total.Add(line.NetBase)
	}
	assert.True(t, total.IsZero(), "net base total = %s", total)
}

func TestDetailedBaseResolution(t *testing.T) {
	env := newTestEnv(t)
	env.seedUSDBase(t)
	env.seedEUR(t, "1.10")
	ctx := context.Background()

	// Explicit base must exist and actually be the base.
	_, err := env.trading.Detailed(ctx, models.TradingFilter{}, "EUR")
	require.True(t, apperrors.IsValidation(err), "non-base code: %v", err)

	_, err = env.trading.Detailed(ctx, models.TradingFilter{}, "CHF")
	require.True(t, apperrors.IsValidation(err), "unknown code: %v", err)

	detailed, err := env.trading.Detailed(ctx, models.TradingFilter{}, "usd")
	require.NoError(t, err)
	assert.Empty(t, detailed)
}

func TestDetailedWithoutBaseCurrency(t *testing.T) {
	env := newTestEnv(t)
	rate := dec(t, "1.10")
	_, err := env.admin.CreateCurrency(context.Background(), "EUR", &rate, false)
	require.NoError(t, err)

	_, err = env.trading.Detailed(context.Background(), models.TradingFilter{}, "")
	require.True(t, apperrors.IsValidation(err), "got %v", err)
}

func TestRawFoldIsOrderIndependent(t *testing.T) {
	amounts := []string{"10", "20", "30"}

	run := func(order []int) []models.RawTradingLine {
		env := newTestEnv(t)
		env.seedUSDBase(t)
		for _, i := range order {
			env.mustPost(t, simpleTransfer(t, amounts[i]), nil)
			env.clock.advance(time.Second)
		}
		raw, err := env.trading.Raw(context.Background(), models.TradingFilter{})
		require.NoError(t, err)
		return raw
	}

	forward := run([]int{0, 1, 2})
	backward := run([]int{2, 1, 0})
	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	assert.True(t, forward[0].Debit.Equal(backward[0].Debit))
	assert.True(t, forward[0].Credit.Equal(backward[0].Credit))
	assert.True(t, forward[0].Net.Equal(backward[0].Net))
}
