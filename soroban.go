// Package soroban is an embeddable double-entry accounting ledger. It records
// balanced journal entries across hierarchically-named accounts, converts
// multi-currency postings into a base currency, maintains per-account balance
// and per-day turnover aggregates, keeps an append-only audit log of FX rate
// changes with retention, and computes trading-balance snapshots.
package soroban

import (
	"go.uber.org/zap"

	"github.com/tropicaldog17/soroban/internal/config"
	"github.com/tropicaldog17/soroban/internal/db"
	"github.com/tropicaldog17/soroban/internal/repositories"
	"github.com/tropicaldog17/soroban/internal/services"
)

// Ledger bundles the use-case services over one database connection.
type Ledger struct {
	Admin   services.AdminService
	Ledger  services.LedgerService
	Trading services.TradingService
	FX      services.FXService
	TTL     services.TTLService

	database *db.DB
}

// Open connects the runtime engine and wires the services. The clock and
// logger may be nil; the system clock and a no-op logger are used then.
func Open(settings config.Settings, clock services.Clock, log *zap.Logger) (*Ledger, error) {
	database, err := db.Connect(settings)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	manager := repositories.NewManager(database, settings, log)
	quantizer := settings.Quantizer()

	return &Ledger{
		Admin:    services.NewAdminService(manager, quantizer),
		Ledger:   services.NewLedgerService(manager, clock, quantizer),
		Trading:  services.NewTradingService(manager, quantizer),
		FX:       services.NewFXService(manager, clock, quantizer),
		TTL:      services.NewTTLService(manager, clock, log),
		database: database,
	}, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.database.Close()
}

// Health pings the underlying database.
func (l *Ledger) Health() error {
	return l.database.Health()
}
