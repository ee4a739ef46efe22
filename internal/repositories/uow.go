package repositories

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tropicaldog17/soroban/internal/config"
	"github.com/tropicaldog17/soroban/internal/db"
	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

type ctxKey int

const uowCtxKey ctxKey = 0

// UnitOfWork is one open database transaction with the repositories bound to
// it. A use-case owns it for the duration of a single request; commit or
// rollback closes it for good.
type UnitOfWork struct {
	tx     *gorm.DB
	log    *zap.Logger
	closed bool

	Currencies CurrencyRepository
	Accounts   AccountRepository
	Journals   JournalRepository
	Aggregates AggregateRepository
	FXEvents   FXEventRepository
}

// Commit commits the transaction. Committing a closed unit of work is a
// no-op with a warning.
func (u *UnitOfWork) Commit() error {
	if u.closed {
		u.log.Warn("commit on closed unit of work")
		return nil
	}
	u.closed = true
	if err := u.tx.Commit().Error; err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. Rolling back a closed unit of work is
// a no-op with a warning.
func (u *UnitOfWork) Rollback() error {
	if u.closed {
		u.log.Warn("rollback on closed unit of work")
		return nil
	}
	u.closed = true
	if err := u.tx.Rollback().Error; err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Closed reports whether the unit of work has been committed or rolled back.
func (u *UnitOfWork) Closed() bool {
	return u.closed
}

// Manager opens units of work over the runtime engine and retries transient
// commit failures with exponential backoff.
type Manager struct {
	db  *db.DB
	log *zap.Logger

	attempts   int
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewManager creates a unit-of-work manager from the settings.
func NewManager(database *db.DB, settings config.Settings, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	attempts := settings.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Manager{
		db:         database,
		log:        log,
		attempts:   attempts,
		backoff:    settings.RetryBackoff,
		maxBackoff: settings.RetryMaxBackoff,
	}
}

// Begin opens a unit of work. The returned context marks the scope; passing
// it to Begin or Do again is a programming error and fails fast. The caller
// must Commit or Rollback on every exit path (Rollback on a committed unit
// is the usual deferred no-op).
func (m *Manager) Begin(ctx context.Context) (context.Context, *UnitOfWork, error) {
	if ctx.Value(uowCtxKey) != nil {
		return ctx, nil, fmt.Errorf("unit of work already open in this context")
	}
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	if m.db.Dialect == db.DialectPostgres && m.db.StatementTimeoutMS > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", m.db.StatementTimeoutMS)).Error; err != nil {
			tx.Rollback()
			return ctx, nil, fmt.Errorf("failed to set statement timeout: %w", err)
		}
	}
	uow := &UnitOfWork{
		tx:         tx,
		log:        m.log,
		Currencies: NewCurrencyRepository(tx),
		Accounts:   NewAccountRepository(tx),
		Journals:   NewJournalRepository(tx),
		Aggregates: NewAggregateRepository(tx),
		FXEvents:   NewFXEventRepository(tx),
	}
	return context.WithValue(ctx, uowCtxKey, uow), uow, nil
}

// Do runs fn inside a unit of work and commits. A transient failure at
// commit rolls everything back and re-runs fn on a fresh transaction, with
// exponential backoff and jitter, up to the configured attempt count.
// Validation, domain and not-found errors are never retried.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context, uow *UnitOfWork) error) error {
	if ctx.Value(uowCtxKey) != nil {
		return fmt.Errorf("unit of work already open in this context")
	}

	var lastErr error
	for attempt := 0; attempt < m.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			m.log.Warn("retrying unit of work after transient error",
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.sleepFor(attempt)):
			}
		}

		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !apperrors.IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (m *Manager) runOnce(ctx context.Context, fn func(ctx context.Context, uow *UnitOfWork) error) error {
	uowCtx, uow, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if !uow.Closed() {
			_ = uow.Rollback()
		}
	}()

	if err := fn(uowCtx, uow); err != nil {
		_ = uow.Rollback()
		return err
	}
	return uow.Commit()
}

// sleepFor computes the backoff before the given (1-based) retry attempt:
// initial * 2^(attempt-1), capped, plus up to 50% jitter.
func (m *Manager) sleepFor(attempt int) time.Duration {
	backoff := m.backoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= m.maxBackoff {
			break
		}
	}
	if backoff > m.maxBackoff {
		backoff = m.maxBackoff
	}
	if backoff <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
	return backoff + jitter
}
