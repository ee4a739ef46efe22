package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTradingLine is one currency's aggregate over a time window, in that
// currency's own unit.
type RawTradingLine struct {
	CurrencyCode string          `json:"currency_code"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Net          decimal.Decimal `json:"net"`
}

// DetailedTradingLine extends RawTradingLine with base-converted figures and
// the rate used for the conversion (1 for the base currency itself).
type DetailedTradingLine struct {
	RawTradingLine
	UsedRate   decimal.Decimal `json:"used_rate"`
	DebitBase  decimal.Decimal `json:"debit_base"`
	CreditBase decimal.Decimal `json:"credit_base"`
	NetBase    decimal.Decimal `json:"net_base"`
}

// TradingFilter bounds a trading-balance aggregation. Nil times mean an
// unbounded side; Meta is an exact-match filter on journal meta.
type TradingFilter struct {
	Start *time.Time
	End   *time.Time
	Meta  Meta
}

// ParityLine reports one currency's rate posture against the base.
type ParityLine struct {
	Code       string           `json:"code"`
	IsBase     bool             `json:"is_base"`
	LatestRate *decimal.Decimal `json:"latest_rate"`
	// Deviation is (latest_rate - 1) * 100 for non-base currencies, a
	// heuristic indicator of drift from parity. Nil when not computed.
	Deviation *decimal.Decimal `json:"deviation"`
}

// ParityReport is the set of parity lines, sorted ascending by code.
type ParityReport struct {
	BaseCode     string       `json:"base_code,omitempty"`
	Lines        []ParityLine `json:"lines"`
	HasDeviation bool         `json:"has_deviation"`
}
