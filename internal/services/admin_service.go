package services

import (
	"context"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
	"github.com/tropicaldog17/soroban/internal/repositories"
)

// adminService implements the AdminService interface.
type adminService struct {
	manager   *repositories.Manager
	quantizer models.Quantizer
}

// NewAdminService creates the reference-data use-cases.
func NewAdminService(manager *repositories.Manager, quantizer models.Quantizer) AdminService {
	return &adminService{manager: manager, quantizer: quantizer}
}

func (s *adminService) CreateCurrency(ctx context.Context, code string, rate *decimal.Decimal, isBase bool) (*models.Currency, error) {
	currency := &models.Currency{
		Code:   models.NormalizeCurrencyCode(code),
		IsBase: isBase,
	}
	if rate != nil {
		quantized := s.quantizer.Rate(*rate)
		currency.ExchangeRate = &quantized
	}

	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		if isBase {
			existing, err := uow.Currencies.GetBase(ctx)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperrors.NewDomain("a base currency already exists: " + existing.Code)
			}
		}
		return uow.Currencies.Create(ctx, currency)
	})
	if err != nil {
		// The unique index on is_base backstops the read check above; a
		// concurrent writer that won the insert surfaces here as a duplicate.
		if isBase && apperrors.IsDuplicate(err) {
			var existing *models.Currency
			lookupErr := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
				var innerErr error
				existing, innerErr = uow.Currencies.GetBase(ctx)
				return innerErr
			})
			if lookupErr == nil && existing != nil && existing.Code != currency.Code {
				return nil, apperrors.NewDomain("a base currency already exists: " + existing.Code)
			}
		}
		return nil, err
	}
	return currency, nil
}

func (s *adminService) GetCurrency(ctx context.Context, code string) (*models.Currency, error) {
	var currency *models.Currency
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var innerErr error
		currency, innerErr = uow.Currencies.GetByCode(ctx, models.NormalizeCurrencyCode(code))
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return currency, nil
}

func (s *adminService) ListCurrencies(ctx context.Context) ([]*models.Currency, error) {
	var currencies []*models.Currency
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var innerErr error
		currencies, innerErr = uow.Currencies.List(ctx)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return currencies, nil
}

func (s *adminService) CreateAccount(ctx context.Context, fullName, currencyCode string) (*models.Account, error) {
	account := &models.Account{
		FullName:     models.NormalizeFullName(fullName),
		CurrencyCode: models.NormalizeCurrencyCode(currencyCode),
	}

	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		if _, err := uow.Currencies.GetByCode(ctx, account.CurrencyCode); err != nil {
			return err
		}
		return uow.Accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *adminService) GetAccount(ctx context.Context, fullName string) (*models.Account, error) {
	var account *models.Account
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var innerErr error
		account, innerErr = uow.Accounts.GetByFullName(ctx, models.NormalizeFullName(fullName))
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *adminService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var innerErr error
		accounts, innerErr = uow.Accounts.List(ctx)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
