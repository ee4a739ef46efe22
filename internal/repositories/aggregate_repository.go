package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tropicaldog17/soroban/internal/models"
)

type aggregateRepository struct {
	tx *gorm.DB
}

// NewAggregateRepository creates an aggregate repository bound to a transaction handle.
func NewAggregateRepository(tx *gorm.DB) AggregateRepository {
	return &aggregateRepository{tx: tx}
}

func (r *aggregateRepository) GetBalance(ctx context.Context, accountID string) (*models.AccountBalance, error) {
	var balance models.AccountBalance
	if err := r.tx.WithContext(ctx).First(&balance, "account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account balance: %w", err)
	}
	return &balance, nil
}

func (r *aggregateRepository) ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) error {
	row := models.AccountBalance{AccountID: accountID, Balance: delta}
	err := r.tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance": gorm.Expr("account_balances.balance + excluded.balance"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert account balance: %w", err)
	}
	return nil
}

func (r *aggregateRepository) GetDailyTurnover(ctx context.Context, accountID string, day time.Time) (*models.AccountDailyTurnover, error) {
	var turnover models.AccountDailyTurnover
	err := r.tx.WithContext(ctx).
		First(&turnover, "account_id = ? AND day = ?", accountID, models.DayOf(day)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily turnover: %w", err)
	}
	return &turnover, nil
}

func (r *aggregateRepository) ApplyDailyTurnover(ctx context.Context, accountID string, day time.Time, debit, credit decimal.Decimal) error {
	row := models.AccountDailyTurnover{
		AccountID:   accountID,
		Day:         models.DayOf(day),
		DebitTotal:  debit,
		CreditTotal: credit,
	}
	err := r.tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"debit_total":  gorm.Expr("account_daily_turnovers.debit_total + excluded.debit_total"),
			"credit_total": gorm.Expr("account_daily_turnovers.credit_total + excluded.credit_total"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily turnover: %w", err)
	}
	return nil
}
