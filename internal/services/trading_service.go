package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
	"github.com/tropicaldog17/soroban/internal/repositories"
)

// tradingService implements the TradingService interface.
type tradingService struct {
	manager   *repositories.Manager
	quantizer models.Quantizer
}

// NewTradingService creates the trading-balance aggregators.
func NewTradingService(manager *repositories.Manager, quantizer models.Quantizer) TradingService {
	return &tradingService{manager: manager, quantizer: quantizer}
}

func (s *tradingService) Raw(ctx context.Context, filter models.TradingFilter) ([]models.RawTradingLine, error) {
	if err := checkWindow(filter); err != nil {
		return nil, err
	}
	lines, err := s.collectLines(ctx, filter)
	if err != nil {
		return nil, err
	}
	return aggregateRaw(lines), nil
}

func (s *tradingService) Detailed(ctx context.Context, filter models.TradingFilter, baseCurrency string) ([]models.DetailedTradingLine, error) {
	if err := checkWindow(filter); err != nil {
		return nil, err
	}

	lines, err := s.collectLines(ctx, filter)
	if err != nil {
		return nil, err
	}
	raw := aggregateRaw(lines)

	var base *models.Currency
	currencies := make(map[string]*models.Currency)
	err = s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		if baseCurrency != "" {
			code := models.NormalizeCurrencyCode(baseCurrency)
			candidate, err := uow.Currencies.GetByCode(ctx, code)
			if err != nil {
				if apperrors.IsNotFound(err) {
					return apperrors.NewValidation("base_currency", fmt.Sprintf("unknown currency %s", code))
				}
				return err
			}
			if !candidate.IsBase {
				return apperrors.NewValidation("base_currency", fmt.Sprintf("%s is not marked as base", code))
			}
			base = candidate
		} else {
			var err error
			base, err = uow.Currencies.GetBase(ctx)
			if err != nil {
				return err
			}
		}

		codes := make([]string, 0, len(raw))
		for _, r := range raw {
			codes = append(codes, r.CurrencyCode)
		}
		var err error
		currencies, err = uow.Currencies.GetByCodes(ctx, codes)
		return err
	})
	if err != nil {
		return nil, err
	}

	if base == nil {
		return nil, apperrors.NewValidation("base_currency", "no base currency is defined")
	}

	detailed := make([]models.DetailedTradingLine, 0, len(raw))
	one := decimal.NewFromInt(1)
	for _, r := range raw {
		var usedRate decimal.Decimal
		if r.CurrencyCode == base.Code {
			usedRate = one
		} else {
			currency, ok := currencies[r.CurrencyCode]
			if !ok {
				return nil, apperrors.NewValidation("currency", fmt.Sprintf("unknown currency %s", r.CurrencyCode))
			}
			rate, ok := currency.Rate()
			if !ok || !rate.IsPositive() {
				return nil, apperrors.NewValidation("currency", fmt.Sprintf("currency %s has no positive rate", r.CurrencyCode))
			}
			usedRate = rate
		}
		detailed = append(detailed, models.DetailedTradingLine{
			RawTradingLine: r,
			UsedRate:       s.quantizer.Rate(usedRate),
			DebitBase:      s.quantizer.Money(r.Debit.Mul(usedRate)),
			CreditBase:     s.quantizer.Money(r.Credit.Mul(usedRate)),
			NetBase:        s.quantizer.Money(r.Net.Mul(usedRate)),
		})
	}
	return detailed, nil
}

// collectLines loads the lines of every journal in the window whose meta
// matches the filter.
func (s *tradingService) collectLines(ctx context.Context, filter models.TradingFilter) ([]models.TransactionLine, error) {
	var journals []*models.Journal
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var err error
		journals, err = uow.Journals.List(ctx, repositories.JournalFilter{
			Start: filter.Start,
			End:   filter.End,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var lines []models.TransactionLine
	for _, j := range journals {
		if len(filter.Meta) > 0 && !j.Meta.Matches(filter.Meta) {
			continue
		}
		lines = append(lines, j.Lines...)
	}
	return lines, nil
}

// aggregateRaw folds lines into per-currency totals. The fold is commutative
// over line order; results sort ascending by currency code.
func aggregateRaw(lines []models.TransactionLine) []models.RawTradingLine {
	byCode := make(map[string]*models.RawTradingLine)
	for _, line := range lines {
		agg, ok := byCode[line.CurrencyCode]
		if !ok {
			agg = &models.RawTradingLine{
				CurrencyCode: line.CurrencyCode,
				Debit:        decimal.Zero,
				Credit:       decimal.Zero,
			}
			byCode[line.CurrencyCode] = agg
		}
		if line.Side == models.Debit {
			agg.Debit = agg.Debit.Add(line.Amount)
		} else {
			agg.Credit = agg.Credit.Add(line.Amount)
		}
	}

	result := make([]models.RawTradingLine, 0, len(byCode))
	for _, agg := range byCode {
		agg.Net = agg.Debit.Sub(agg.Credit)
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CurrencyCode < result[j].CurrencyCode })
	return result
}

func checkWindow(filter models.TradingFilter) error {
	if filter.Start != nil && filter.End != nil && filter.Start.After(*filter.End) {
		return apperrors.NewValidation("start", "must not be after end")
	}
	return nil
}
