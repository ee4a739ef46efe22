package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tropicaldog17/soroban/internal/config"
	"github.com/tropicaldog17/soroban/internal/db"
	"github.com/tropicaldog17/soroban/internal/models"
	"github.com/tropicaldog17/soroban/internal/repositories"
)

var testDBSeq atomic.Int64

// stepClock is a manually advanced clock for deterministic timestamps.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time          { return c.t.UTC() }
func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	gdb     *gorm.DB
	manager *repositories.Manager
	clock   *stepClock

	admin   AdminService
	ledger  LedgerService
	trading TradingService
	fx      FXService
	ttl     TTLService
}

// newTestEnv opens a fresh shared-memory sqlite database with the full schema
// and wires every service over it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.Currency{},
		&models.Account{},
		&models.Journal{},
		&models.TransactionLine{},
		&models.AccountBalance{},
		&models.AccountDailyTurnover{},
		&models.ExchangeRateEvent{},
		&models.ExchangeRateEventArchive{},
	))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	settings := config.Defaults()
	database := &db.DB{DB: gdb, Dialect: db.DialectSQLite}
	manager := repositories.NewManager(database, settings, zap.NewNop())
	quantizer := settings.Quantizer()
	clock := &stepClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	return &testEnv{
		gdb:     gdb,
		manager: manager,
		clock:   clock,
		admin:   NewAdminService(manager, quantizer),
		ledger:  NewLedgerService(manager, clock, quantizer),
		trading: NewTradingService(manager, quantizer),
		fx:      NewFXService(manager, clock, quantizer),
		ttl:     NewTTLService(manager, clock, zap.NewNop()),
	}
}

// seedUSDBase creates the base currency plus the usual cash and income accounts.
func (e *testEnv) seedUSDBase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := e.admin.CreateCurrency(ctx, "USD", nil, true)
	require.NoError(t, err)
	_, err = e.admin.CreateAccount(ctx, "Assets:Cash", "USD")
	require.NoError(t, err)
	_, err = e.admin.CreateAccount(ctx, "Income:Sales", "USD")
	require.NoError(t, err)
}

// seedEUR adds a EUR currency at the given rate with a EUR cash account.
func (e *testEnv) seedEUR(t *testing.T, rate string) {
	t.Helper()
	ctx := context.Background()
	r, err := decimal.NewFromString(rate)
	require.NoError(t, err)
	_, err = e.admin.CreateCurrency(ctx, "EUR", &r, false)
	require.NoError(t, err)
	_, err = e.admin.CreateAccount(ctx, "Assets:Cash:EUR", "EUR")
	require.NoError(t, err)
}

// mustPost posts a balanced journal and fails the test on error.
func (e *testEnv) mustPost(t *testing.T, lines []models.EntryLine, meta models.Meta) *models.Journal {
	t.Helper()
	journal, err := e.ledger.Post(context.Background(), lines, nil, meta)
	require.NoError(t, err)
	return journal
}

// simpleTransfer builds a two-line USD journal of the given magnitude.
func simpleTransfer(t *testing.T, amount string) []models.EntryLine {
	t.Helper()
	return []models.EntryLine{
		{Side: models.Debit, AccountFullName: "Assets:Cash", Amount: dec(t, amount), CurrencyCode: "USD"},
		{Side: models.Credit, AccountFullName: "Income:Sales", Amount: dec(t, amount), CurrencyCode: "USD"},
	}
}

// turnoverFor reads the daily turnover row for an account, nil when absent.
func (e *testEnv) turnoverFor(t *testing.T, fullName string, day time.Time) *models.AccountDailyTurnover {
	t.Helper()
	var row *models.AccountDailyTurnover
	err := e.manager.Do(context.Background(), func(ctx context.Context, uow *repositories.UnitOfWork) error {
		account, err := uow.Accounts.GetByFullName(ctx, fullName)
		if err != nil {
			return err
		}
		row, err = uow.Aggregates.GetDailyTurnover(ctx, account.ID, day)
		return err
	})
	require.NoError(t, err)
	return row
}
