package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
)

type accountRepository struct {
	tx *gorm.DB
}

// NewAccountRepository creates an account repository bound to a transaction handle.
func NewAccountRepository(tx *gorm.DB) AccountRepository {
	return &accountRepository{tx: tx}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if err := r.tx.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.tx.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("account", id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByFullName(ctx context.Context, fullName string) (*models.Account, error) {
	var account models.Account
	if err := r.tx.WithContext(ctx).First(&account, "full_name = ?", fullName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("account", fullName)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByFullNames(ctx context.Context, fullNames []string) (map[string]*models.Account, error) {
	result := make(map[string]*models.Account, len(fullNames))
	if len(fullNames) == 0 {
		return result, nil
	}
	var accounts []*models.Account
	if err := r.tx.WithContext(ctx).Where("full_name IN ?", fullNames).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	for _, a := range accounts {
		result[a.FullName] = a
	}
	return result, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := r.tx.WithContext(ctx).Order("full_name ASC").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
