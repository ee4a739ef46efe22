// Package migrations applies the versioned schema changes of the ledger in
// order. The runner always speaks through a sync driver; async-style URLs
// are converted to their sync equivalent before connecting.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tropicaldog17/soroban/internal/db"
	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

//go:embed sql/*.sql
var migrationFS embed.FS

// Migration is one versioned schema change with its up and down SQL.
type Migration struct {
	Version string // 4-digit sequential id, e.g. "0001"
	Name    string
	Up      string
	Down    string
}

// Runner applies migrations against the sync engine.
type Runner struct {
	db         *sql.DB
	log        *zap.Logger
	migrations []Migration
}

// NewRunner opens a short-lived sync connection from a database URL. An
// async-style URL is normalized to its sync-driver equivalent first.
func NewRunner(databaseURL string, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	syncURL, err := db.NormalizeSyncURL(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.RejectAsyncURL(syncURL); err != nil {
		return nil, err
	}
	dialect, dsn, err := db.DriverDSN(syncURL)
	if err != nil {
		return nil, err
	}
	driverName := "postgres"
	if dialect == db.DialectSQLite {
		driverName = "sqlite3"
	}
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration engine: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping migration engine: %w", err)
	}

	migs, err := loadMigrations()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Runner{db: conn, log: log, migrations: migs}, nil
}

// Close releases the migration engine connection.
func (r *Runner) Close() error {
	return r.db.Close()
}

// Migrations returns the known migrations in order.
func (r *Runner) Migrations() []Migration {
	return r.migrations
}

// CurrentVersion reads the highest applied version, or "" when none.
func (r *Runner) CurrentVersion(ctx context.Context) (string, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return "", err
	}
	var version sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return "", nil
	}
	return version.String, nil
}

// PendingMigrations lists versions not yet applied, in order.
func (r *Runner) PendingMigrations(ctx context.Context) ([]string, error) {
	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, m := range r.migrations {
		if m.Version > current {
			pending = append(pending, m.Version)
		}
	}
	return pending, nil
}

// ValidateVersion fails when the current version differs from expected.
func (r *Runner) ValidateVersion(ctx context.Context, expected string) error {
	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if current != expected {
		return &apperrors.ErrVersionMismatch{Current: current, Expected: expected}
	}
	return nil
}

// UpgradeToHead applies every pending migration in sequence. Running it
// against an up-to-date schema is a no-op.
func (r *Runner) UpgradeToHead(ctx context.Context) error {
	if len(r.migrations) == 0 {
		return nil
	}
	return r.UpgradeTo(ctx, r.migrations[len(r.migrations)-1].Version)
}

// UpgradeTo applies pending migrations up to and including target.
func (r *Runner) UpgradeTo(ctx context.Context, target string) error {
	if _, ok := r.find(target); !ok {
		return apperrors.NewValidation("version", fmt.Sprintf("unknown migration version %q", target))
	}
	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	for _, m := range r.migrations {
		if m.Version <= current || m.Version > target {
			continue
		}
		r.log.Info("applying migration", zap.String("version", m.Version), zap.String("name", m.Name))
		if err := r.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Version, err)
		}
	}
	return nil
}

// Downgrade reverts applied migrations. A numeric step count like "2" walks
// back that many versions; a version id like "0001" reverts down to (and
// keeping) that version; "base" reverts everything.
func (r *Runner) Downgrade(ctx context.Context, target string) error {
	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if current == "" {
		return nil
	}

	var keep string
	switch {
	case target == "base":
		keep = ""
	case len(target) == 4:
		if _, ok := r.find(target); !ok {
			return apperrors.NewValidation("version", fmt.Sprintf("unknown migration version %q", target))
		}
		keep = target
	default:
		steps := 0
		if _, err := fmt.Sscanf(target, "%d", &steps); err != nil || steps < 0 {
			return apperrors.NewValidation("target", fmt.Sprintf("must be a step count, a 4-digit version or \"base\", got %q", target))
		}
		applied, err := r.appliedVersions(ctx)
		if err != nil {
			return err
		}
		if steps >= len(applied) {
			keep = ""
		} else {
			keep = applied[len(applied)-1-steps]
		}
	}

	for i := len(r.migrations) - 1; i >= 0; i-- {
		m := r.migrations[i]
		if m.Version > current || m.Version <= keep {
			continue
		}
		r.log.Info("reverting migration", zap.String("version", m.Version), zap.String("name", m.Name))
		if err := r.revert(ctx, m); err != nil {
			return fmt.Errorf("downgrade of %s failed: %w", m.Version, err)
		}
	}
	return nil
}

func (r *Runner) find(version string) (Migration, bool) {
	for _, m := range r.migrations {
		if m.Version == version {
			return m, true
		}
	}
	return Migration{}, false
}

func (r *Runner) appliedVersions(ctx context.Context) ([]string, error) {
	if err := r.ensureVersionTable(ctx); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list applied versions: %w", err)
	}
	defer rows.Close()
	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.Up); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES ($1)", m.Version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}

func (r *Runner) revert(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.Down); err != nil {
		return fmt.Errorf("failed to execute down migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version WHERE version = $1", m.Version); err != nil {
		return fmt.Errorf("failed to unrecord migration: %w", err)
	}
	return tx.Commit()
}

func (r *Runner) ensureVersionTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY)")
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

func loadMigrations() ([]Migration, error) {
	entries, err := migrationFS.ReadDir("sql")
	if err != nil {
		return nil, err
	}

	byVersion := make(map[string]*Migration)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}
		// e.g. "0001_core_tables.up.sql"
		base := strings.TrimSuffix(name, ".sql")
		direction := ""
		switch {
		case strings.HasSuffix(base, ".up"):
			direction = "up"
			base = strings.TrimSuffix(base, ".up")
		case strings.HasSuffix(base, ".down"):
			direction = "down"
			base = strings.TrimSuffix(base, ".down")
		default:
			continue
		}
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 || len(parts[0]) != 4 {
			return nil, fmt.Errorf("malformed migration filename: %s", name)
		}

		content, err := migrationFS.ReadFile("sql/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		m, ok := byVersion[parts[0]]
		if !ok {
			m = &Migration{Version: parts[0], Name: parts[1]}
			byVersion[parts[0]] = m
		}
		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migs := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s has no up script", m.Version)
		}
		migs = append(migs, *m)
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	return migs, nil
}
