package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
)

// EnvPrefix is the namespaced form of every setting: PYACC__DATABASE_URL is
// read before DATABASE_URL, and so on.
const EnvPrefix = "PYACC__"

// Settings is the immutable configuration of one ledger instance. Build it
// with Load (environment) or start from Defaults and adjust in code.
type Settings struct {
	// DatabaseURL is the sync connection URL used by the migration runner.
	DatabaseURL string
	// DatabaseURLAsync is the runtime engine URL; when empty it is
	// normalized from DatabaseURL at connect time.
	DatabaseURLAsync string

	PoolSize    int
	MaxOverflow int
	// PoolTimeout is accepted for env-contract compatibility. database/sql
	// has no pool-wait knob; a caller waiting for a free connection blocks
	// on its request context instead.
	PoolTimeout        time.Duration
	PoolRecycle        time.Duration
	ConnectTimeout     time.Duration
	StatementTimeoutMS int

	RetryAttempts   int
	RetryBackoff    time.Duration
	RetryMaxBackoff time.Duration

	MoneyScale int
	RateScale  int
	Rounding   models.Rounding

	TTLMode          models.TTLMode
	TTLRetentionDays int
	TTLBatchSize     int
	TTLDryRun        bool
}

// Defaults returns the settings contract defaults.
func Defaults() Settings {
	return Settings{
		PoolSize:           5,
		MaxOverflow:        10,
		PoolTimeout:        30 * time.Second,
		PoolRecycle:        1800 * time.Second,
		ConnectTimeout:     10 * time.Second,
		StatementTimeoutMS: 0,
		RetryAttempts:      3,
		RetryBackoff:       50 * time.Millisecond,
		RetryMaxBackoff:    1000 * time.Millisecond,
		MoneyScale:         2,
		RateScale:          6,
		Rounding:           models.RoundHalfEven,
		TTLMode:            models.TTLModeNone,
		TTLRetentionDays:   90,
		TTLBatchSize:       1000,
		TTLDryRun:          false,
	}
}

// Load builds Settings from environment variables, starting from Defaults.
func Load() (Settings, error) {
	s := Defaults()

	s.DatabaseURL = getEnv("DATABASE_URL", "")
	s.DatabaseURLAsync = getEnv("DATABASE_URL_ASYNC", "")

	var err error
	if s.PoolSize, err = getEnvInt("DB_POOL_SIZE", s.PoolSize); err != nil {
		return s, err
	}
	if s.MaxOverflow, err = getEnvInt("DB_MAX_OVERFLOW", s.MaxOverflow); err != nil {
		return s, err
	}
	if s.PoolTimeout, err = getEnvSeconds("DB_POOL_TIMEOUT", s.PoolTimeout); err != nil {
		return s, err
	}
	if s.PoolRecycle, err = getEnvSeconds("DB_POOL_RECYCLE_SEC", s.PoolRecycle); err != nil {
		return s, err
	}
	if s.ConnectTimeout, err = getEnvSeconds("DB_CONNECT_TIMEOUT_SEC", s.ConnectTimeout); err != nil {
		return s, err
	}
	if s.StatementTimeoutMS, err = getEnvInt("DB_STATEMENT_TIMEOUT_MS", s.StatementTimeoutMS); err != nil {
		return s, err
	}
	if s.RetryAttempts, err = getEnvInt("DB_RETRY_ATTEMPTS", s.RetryAttempts); err != nil {
		return s, err
	}
	if s.RetryBackoff, err = getEnvMillis("DB_RETRY_BACKOFF_MS", s.RetryBackoff); err != nil {
		return s, err
	}
	if s.RetryMaxBackoff, err = getEnvMillis("DB_RETRY_MAX_BACKOFF_MS", s.RetryMaxBackoff); err != nil {
		return s, err
	}
	if s.MoneyScale, err = getEnvInt("MONEY_SCALE", s.MoneyScale); err != nil {
		return s, err
	}
	if s.RateScale, err = getEnvInt("RATE_SCALE", s.RateScale); err != nil {
		return s, err
	}

	if v := getEnv("ROUNDING", ""); v != "" {
		mode, err := models.ParseRounding(v)
		if err != nil {
			return s, apperrors.NewValidation("ROUNDING", err.Error())
		}
		s.Rounding = mode
	}

	if v := getEnv("FX_TTL_MODE", ""); v != "" {
		mode, err := models.ParseTTLMode(v)
		if err != nil {
			return s, apperrors.NewValidation("FX_TTL_MODE", err.Error())
		}
		s.TTLMode = mode
	}
	if s.TTLRetentionDays, err = getEnvInt("FX_TTL_RETENTION_DAYS", s.TTLRetentionDays); err != nil {
		return s, err
	}
	if s.TTLBatchSize, err = getEnvInt("FX_TTL_BATCH_SIZE", s.TTLBatchSize); err != nil {
		return s, err
	}
	if s.TTLDryRun, err = getEnvBool("FX_TTL_DRY_RUN", s.TTLDryRun); err != nil {
		return s, err
	}

	return s, nil
}

// Quantizer derives the decimal quantization contract from the settings.
func (s Settings) Quantizer() models.Quantizer {
	return models.Quantizer{
		MoneyScale: int32(s.MoneyScale),
		RateScale:  int32(s.RateScale),
		Mode:       s.Rounding,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidation(key, fmt.Sprintf("not an integer: %q", raw))
	}
	return v, nil
}

func getEnvSeconds(key string, defaultValue time.Duration) (time.Duration, error) {
	v, err := getEnvInt(key, int(defaultValue/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Second, nil
}

func getEnvMillis(key string, defaultValue time.Duration) (time.Duration, error) {
	v, err := getEnvInt(key, int(defaultValue/time.Millisecond))
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Millisecond, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidation(key, fmt.Sprintf("not a boolean: %q", raw))
	}
	return v, nil
}
