package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tropicaldog17/soroban/internal/config"
	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/logger"
	"github.com/tropicaldog17/soroban/migrations"
)

const usage = `usage: migrate <command> [arg]

commands:
  up              apply all pending migrations
  up-to VERSION   apply pending migrations up to VERSION
  down TARGET     revert migrations (step count, version, or "base")
  version         print the current schema version
  pending         list pending migration versions
  validate VER    fail unless the current version equals VER
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	log, err := logger.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		return 1
	}
	defer log.Sync()

	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	settings, err := config.Load()
	if err != nil {
		return report(log, err)
	}
	if settings.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required for migrations")
		return 2
	}

	runner, err := migrations.NewRunner(settings.DatabaseURL, log)
	if err != nil {
		return report(log, err)
	}
	defer runner.Close()

	ctx := context.Background()
	switch args[0] {
	case "up":
		err = runner.UpgradeToHead(ctx)
	case "up-to":
		if len(args) < 2 {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		err = runner.UpgradeTo(ctx, args[1])
	case "down":
		if len(args) < 2 {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		err = runner.Downgrade(ctx, args[1])
	case "version":
		var current string
		current, err = runner.CurrentVersion(ctx)
		if err == nil {
			if current == "" {
				current = "(none)"
			}
			fmt.Println(current)
		}
	case "pending":
		var pending []string
		pending, err = runner.PendingMigrations(ctx)
		if err == nil {
			for _, v := range pending {
				fmt.Println(v)
			}
		}
	case "validate":
		if len(args) < 2 {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		err = runner.ValidateVersion(ctx, args[1])
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	if err != nil {
		return report(log, err)
	}
	return 0
}

// report logs the error and maps it to the process exit code: validation and
// domain failures exit 2, anything else 1.
func report(log *zap.Logger, err error) int {
	log.Error("migrate failed", zap.Error(err))
	if apperrors.IsValidation(err) || apperrors.IsDomain(err) || apperrors.IsVersionMismatch(err) {
		return 2
	}
	return 1
}
