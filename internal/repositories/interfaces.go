package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tropicaldog17/soroban/internal/models"
)

// CurrencyRepository defines the interface for currency data operations.
type CurrencyRepository interface {
	Create(ctx context.Context, currency *models.Currency) error
	GetByCode(ctx context.Context, code string) (*models.Currency, error)
	// GetByCodes loads several currencies at once; missing codes are simply
	// absent from the result map.
	GetByCodes(ctx context.Context, codes []string) (map[string]*models.Currency, error)
	// GetBase returns the base currency, or nil when none is defined.
	GetBase(ctx context.Context) (*models.Currency, error)
	List(ctx context.Context) ([]*models.Currency, error)
	UpdateRate(ctx context.Context, code string, rate decimal.Decimal) error
}

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByFullName(ctx context.Context, fullName string) (*models.Account, error)
	// GetByFullNames loads several accounts at once; missing names are simply
	// absent from the result map.
	GetByFullNames(ctx context.Context, fullNames []string) (map[string]*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}

// JournalFilter bounds a journal query. Nil times mean an unbounded side.
type JournalFilter struct {
	AccountID string // only journals with at least one line on this account
	Start     *time.Time
	End       *time.Time
}

// JournalRepository defines the interface for journal and line persistence.
// Journals are created with their lines and never modified.
type JournalRepository interface {
	// Create inserts the journal row and then its lines in order.
	Create(ctx context.Context, journal *models.Journal) error
	GetByID(ctx context.Context, id string) (*models.Journal, error)
	// GetByIdempotencyKey returns nil when no journal carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Journal, error)
	// List returns journals matching the filter ordered ascending by
	// occurred_at, each with its lines in position order.
	List(ctx context.Context, filter JournalFilter) ([]*models.Journal, error)
	// LinesByAccount returns the committed lines on an account with
	// occurred_at <= until, for the historical balance scan.
	LinesByAccount(ctx context.Context, accountID string, until time.Time) ([]models.TransactionLine, error)
}

// AggregateRepository maintains the denormalized per-account aggregates.
// All writes are SELECT-then-UPSERT under the unit of work's transaction.
type AggregateRepository interface {
	// GetBalance returns nil when the account has no balance row yet.
	GetBalance(ctx context.Context, accountID string) (*models.AccountBalance, error)
	// ApplyBalanceDelta upserts balance := balance + delta.
	ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) error
	// GetDailyTurnover returns nil when no turnover row exists for the day.
	GetDailyTurnover(ctx context.Context, accountID string, day time.Time) (*models.AccountDailyTurnover, error)
	// ApplyDailyTurnover upserts debit_total += debit, credit_total += credit
	// for the (account, UTC day) key.
	ApplyDailyTurnover(ctx context.Context, accountID string, day time.Time, debit, credit decimal.Decimal) error
}

// FXEventRepository defines the interface for the append-only FX audit log.
type FXEventRepository interface {
	Append(ctx context.Context, event *models.ExchangeRateEvent) error
	// List returns events newest-first by occurred_at, optionally filtered by
	// code; limit <= 0 means no limit.
	List(ctx context.Context, code string, limit int) ([]*models.ExchangeRateEvent, error)
	// ListIDsBefore returns ids of events with occurred_at < cutoff in
	// ascending time order, up to limit.
	ListIDsBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.ExchangeRateEvent, error)
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
	// CopyToArchive copies events into the archive table, stamping archivedAt.
	CopyToArchive(ctx context.Context, ids []string, archivedAt time.Time) (int, error)
}
