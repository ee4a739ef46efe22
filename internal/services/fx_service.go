package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
	"github.com/tropicaldog17/soroban/internal/repositories"
)

// fxService implements the FXService interface.
type fxService struct {
	manager   *repositories.Manager
	clock     Clock
	quantizer models.Quantizer
}

// NewFXService creates the FX rate and audit-log use-cases.
func NewFXService(manager *repositories.Manager, clock Clock, quantizer models.Quantizer) FXService {
	if clock == nil {
		clock = SystemClock()
	}
	return &fxService{manager: manager, clock: clock, quantizer: quantizer}
}

func (s *fxService) AddRateEvent(ctx context.Context, code string, rate decimal.Decimal, occurredAt time.Time, policyApplied string, source *string) (*models.ExchangeRateEvent, error) {
	event := &models.ExchangeRateEvent{
		Code:          models.NormalizeCurrencyCode(code),
		Rate:          s.quantizer.Rate(rate),
		OccurredAt:    occurredAt.UTC(),
		PolicyApplied: policyApplied,
		Source:        source,
	}
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		return uow.FXEvents.Append(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *fxService) SetRate(ctx context.Context, code string, rate decimal.Decimal, policyApplied string, source *string) (*models.ExchangeRateEvent, error) {
	normalized := models.NormalizeCurrencyCode(code)
	if !rate.IsPositive() {
		return nil, apperrors.NewValidation("rate", "must be positive")
	}
	quantized := s.quantizer.Rate(rate)

	event := &models.ExchangeRateEvent{
		Code:          normalized,
		Rate:          quantized,
		OccurredAt:    s.clock.Now(),
		PolicyApplied: policyApplied,
		Source:        source,
	}
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		currency, err := uow.Currencies.GetByCode(ctx, normalized)
		if err != nil {
			return err
		}
		if currency.IsBase {
			return apperrors.NewValidation("code", "base currency does not carry a rate")
		}
		if err := uow.Currencies.UpdateRate(ctx, normalized, quantized); err != nil {
			return err
		}
		return uow.FXEvents.Append(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *fxService) ListRateEvents(ctx context.Context, code string, limit *int) ([]*models.ExchangeRateEvent, error) {
	if limit != nil && *limit < 0 {
		return []*models.ExchangeRateEvent{}, nil
	}
	effective := 0
	if limit != nil {
		effective = *limit
	}

	var events []*models.ExchangeRateEvent
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var err error
		events, err = uow.FXEvents.List(ctx, models.NormalizeCurrencyCode(code), effective)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *fxService) Parity(ctx context.Context, query ParityQuery) (*models.ParityReport, error) {
	var currencies []*models.Currency
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var err error
		currencies, err = uow.Currencies.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(query.Codes))
	for _, code := range query.Codes {
		wanted[models.NormalizeCurrencyCode(code)] = true
	}

	var baseCode string
	for _, c := range currencies {
		if c.IsBase {
			baseCode = c.Code
			break
		}
	}

	report := &models.ParityReport{BaseCode: baseCode, Lines: []models.ParityLine{}}
	hundred := decimal.NewFromInt(100)
	one := decimal.NewFromInt(1)
	for _, c := range currencies {
		if query.BaseOnly && !c.IsBase {
			continue
		}
		if len(wanted) > 0 && !wanted[c.Code] {
			continue
		}
		line := models.ParityLine{Code: c.Code, IsBase: c.IsBase}
		if !c.IsBase && c.ExchangeRate != nil {
			rate := s.quantizer.Rate(*c.ExchangeRate)
			line.LatestRate = &rate
			if query.IncludeDeviation && baseCode != "" {
				deviation := s.quantizer.Rate(rate.Sub(one).Mul(hundred))
				line.Deviation = &deviation
				report.HasDeviation = true
			}
		}
		report.Lines = append(report.Lines, line)
	}
	sort.Slice(report.Lines, func(i, j int) bool { return report.Lines[i].Code < report.Lines[j].Code })
	return report, nil
}
