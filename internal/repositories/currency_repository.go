package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
)

type currencyRepository struct {
	tx *gorm.DB
}

// NewCurrencyRepository creates a currency repository bound to a transaction handle.
func NewCurrencyRepository(tx *gorm.DB) CurrencyRepository {
	return &currencyRepository{tx: tx}
}

func (r *currencyRepository) Create(ctx context.Context, currency *models.Currency) error {
	if err := currency.Validate(); err != nil {
		return err
	}
	if err := r.tx.WithContext(ctx).Create(currency).Error; err != nil {
		return fmt.Errorf("failed to create currency: %w", err)
	}
	return nil
}

func (r *currencyRepository) GetByCode(ctx context.Context, code string) (*models.Currency, error) {
	var currency models.Currency
	if err := r.tx.WithContext(ctx).First(&currency, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("currency", code)
		}
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return &currency, nil
}

func (r *currencyRepository) GetByCodes(ctx context.Context, codes []string) (map[string]*models.Currency, error) {
	result := make(map[string]*models.Currency, len(codes))
	if len(codes) == 0 {
		return result, nil
	}
	var currencies []*models.Currency
	if err := r.tx.WithContext(ctx).Where("code IN ?", codes).Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("failed to get currencies: %w", err)
	}
	for _, c := range currencies {
		result[c.Code] = c
	}
	return result, nil
}

func (r *currencyRepository) GetBase(ctx context.Context) (*models.Currency, error) {
	var currency models.Currency
	if err := r.tx.WithContext(ctx).First(&currency, "is_base = ?", true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get base currency: %w", err)
	}
	return &currency, nil
}

func (r *currencyRepository) List(ctx context.Context) ([]*models.Currency, error) {
	var currencies []*models.Currency
	if err := r.tx.WithContext(ctx).Order("code ASC").Find(&currencies).Error; err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}

func (r *currencyRepository) UpdateRate(ctx context.Context, code string, rate decimal.Decimal) error {
	result := r.tx.WithContext(ctx).Model(&models.Currency{}).
		Where("code = ? AND is_base = ?", code, false).
		Update("exchange_rate", rate)
	if result.Error != nil {
		return fmt.Errorf("failed to update rate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("currency", code)
	}
	return nil
}
