package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/soroban/internal/models"
)

// LedgerQuery selects a page of an account's ledger.
type LedgerQuery struct {
	AccountFullName string
	Start           *time.Time // default: epoch
	End             *time.Time // default: clock now
	Meta            models.Meta
	Offset          int
	Limit           *int   // nil: unlimited; <= 0: empty result
	Order           string // "ASC" (default) or "DESC" by occurred_at, case-insensitive
}

// LedgerService defines the core posting and query operations.
type LedgerService interface {
	// Post records one balanced journal with its lines and updates the
	// account balance and daily turnover aggregates atomically.
	Post(ctx context.Context, lines []models.EntryLine, memo *string, meta models.Meta) (*models.Journal, error)
	// Balance returns the account's balance: the aggregate row when asOf is
	// absent or in the future, otherwise a scan over committed lines.
	Balance(ctx context.Context, accountFullName string, asOf *time.Time) (decimal.Decimal, error)
	// Ledger returns the journals touching an account within a window,
	// ordered, filtered by meta and paged.
	Ledger(ctx context.Context, query LedgerQuery) ([]*models.Journal, error)
}

// TradingService computes trading-balance snapshots over time windows.
type TradingService interface {
	// Raw aggregates debit/credit/net per currency, in each currency's own unit.
	Raw(ctx context.Context, filter models.TradingFilter) ([]models.RawTradingLine, error)
	// Detailed additionally converts to the base currency. baseCurrency may
	// be empty, in which case the configured base is used.
	Detailed(ctx context.Context, filter models.TradingFilter, baseCurrency string) ([]models.DetailedTradingLine, error)
}

// ParityQuery selects the currencies covered by a parity report.
type ParityQuery struct {
	BaseOnly bool
	Codes    []string
	// IncludeDeviation defaults to true via NewParityQuery.
	IncludeDeviation bool
}

// NewParityQuery returns the default parity query: all currencies, with
// deviation computation enabled.
func NewParityQuery() ParityQuery {
	return ParityQuery{IncludeDeviation: true}
}

// FXService manages exchange rates and their append-only audit log.
type FXService interface {
	// AddRateEvent appends an audit event without touching the currency.
	AddRateEvent(ctx context.Context, code string, rate decimal.Decimal, occurredAt time.Time, policyApplied string, source *string) (*models.ExchangeRateEvent, error)
	// SetRate updates the currency's stored rate and appends the audit event
	// in the same unit of work.
	SetRate(ctx context.Context, code string, rate decimal.Decimal, policyApplied string, source *string) (*models.ExchangeRateEvent, error)
	// ListRateEvents returns events newest-first; nil limit means all,
	// a negative limit an empty list.
	ListRateEvents(ctx context.Context, code string, limit *int) ([]*models.ExchangeRateEvent, error)
	// Parity reports each currency's rate posture against the base.
	Parity(ctx context.Context, query ParityQuery) (*models.ParityReport, error)
}

// TTLRequest parameterizes an FX-audit TTL run.
type TTLRequest struct {
	RetentionDays int
	BatchSize     int
	Mode          string // none | delete | archive, case-insensitive
	Limit         *int
	DryRun        bool
}

// TTLService plans and executes retention runs over the FX audit log.
type TTLService interface {
	Plan(ctx context.Context, req TTLRequest) (*models.TTLPlan, error)
	Execute(ctx context.Context, plan *models.TTLPlan) (*models.TTLResult, error)
}

// AdminService creates and lists the ledger's reference data. Currencies and
// accounts are created once and never deleted.
type AdminService interface {
	CreateCurrency(ctx context.Context, code string, rate *decimal.Decimal, isBase bool) (*models.Currency, error)
	GetCurrency(ctx context.Context, code string) (*models.Currency, error)
	ListCurrencies(ctx context.Context) ([]*models.Currency, error)
	CreateAccount(ctx context.Context, fullName, currencyCode string) (*models.Account, error)
	GetAccount(ctx context.Context, fullName string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}
