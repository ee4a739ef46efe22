package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	url := "sqlite:///" + filepath.Join(t.TempDir(), "ledger.db")
	runner, err := NewRunner(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { runner.Close() })
	return runner
}

func headVersion(t *testing.T, r *Runner) string {
	t.Helper()
	migs := r.Migrations()
	require.NotEmpty(t, migs)
	return migs[len(migs)-1].Version
}

func TestLoadedMigrationsAreOrderedPairs(t *testing.T) {
	runner := newTestRunner(t)

	migs := runner.Migrations()
	require.NotEmpty(t, migs)
	prev := ""
	for _, m := range migs {
		assert.Len(t, m.Version, 4)
		assert.Greater(t, m.Version, prev)
		assert.NotEmpty(t, m.Up, "migration %s", m.Version)
		assert.NotEmpty(t, m.Down, "migration %s", m.Version)
		prev = m.Version
	}
}

func TestUpgradeToHeadIsIdempotent(t *testing.T) {
	runner := newTestRunner(t)
	ctx := context.Background()

	version, err := runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", version)

	require.NoError(t, runner.UpgradeToHead(ctx))
	version, err = runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, headVersion(t, runner), version)

	// Running again against an up-to-date schema changes nothing.
	require.NoError(t, runner.UpgradeToHead(ctx))
	again, err := runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, version, again)

	pending, err := runner.PendingMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUpgradeToTarget(t *testing.T) {
	runner := newTestRunner(t)
	ctx := context.Background()

	require.NoError(t, runner.UpgradeTo(ctx, "0002"))
	version, err := runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0002", version)

	pending, err := runner.PendingMigrations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	assert.Equal(t, "0003", pending[0])

	err = runner.UpgradeTo(ctx, "9999")
	require.True(t, apperrors.IsValidation(err), "got %v", err)
}

func TestValidateVersion(t *testing.T) {
	runner := newTestRunner(t)
	ctx := context.Background()

	require.NoError(t, runner.UpgradeTo(ctx, "0001"))
	require.NoError(t, runner.ValidateVersion(ctx, "0001"))

	err := runner.ValidateVersion(ctx, "0002")
	require.True(t, apperrors.IsVersionMismatch(err), "got %v", err)
}

func TestDowngradeTargets(t *testing.T) {
	ctx := context.Background()

	t.Run("to version", func(t *testing.T) {
		runner := newTestRunner(t)
		require.NoError(t, runner.UpgradeToHead(ctx))
		require.NoError(t, runner.Downgrade(ctx, "0001"))
		version, err := runner.CurrentVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0001", version)
	})

	t.Run("by steps", func(t *testing.T) {
		runner := newTestRunner(t)
		require.NoError(t, runner.UpgradeToHead(ctx))
		require.NoError(t, runner.Downgrade(ctx, "1"))
		version, err := runner.CurrentVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "0002", version)
	})

	t.Run("to base", func(t *testing.T) {
		runner := newTestRunner(t)
		require.NoError(t, runner.UpgradeToHead(ctx))
		require.NoError(t, runner.Downgrade(ctx, "base"))
		version, err := runner.CurrentVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", version)

		// Downgrading an empty schema is a no-op.
		require.NoError(t, runner.Downgrade(ctx, "base"))
	})

	t.Run("bad target", func(t *testing.T) {
		runner := newTestRunner(t)
		require.NoError(t, runner.UpgradeToHead(ctx))
		err := runner.Downgrade(ctx, "backwards")
		require.True(t, apperrors.IsValidation(err), "got %v", err)
		err = runner.Downgrade(ctx, "7777")
		require.True(t, apperrors.IsValidation(err), "got %v", err)
	})
}

func TestDowngradeThenUpgradeRoundTrip(t *testing.T) {
	runner := newTestRunner(t)
	ctx := context.Background()

	require.NoError(t, runner.UpgradeToHead(ctx))
	require.NoError(t, runner.Downgrade(ctx, "base"))
	require.NoError(t, runner.UpgradeToHead(ctx))

	version, err := runner.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, headVersion(t, runner), version)
}

func TestRunnerRejectsUnsupportedURL(t *testing.T) {
	_, err := NewRunner("mysql://u:p@h/ledger", nil)
	require.Error(t, err)
}
