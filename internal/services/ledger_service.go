package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
	"github.com/tropicaldog17/soroban/internal/repositories"
)

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	manager   *repositories.Manager
	clock     Clock
	quantizer models.Quantizer
}

// NewLedgerService creates the posting and query use-cases.
func NewLedgerService(manager *repositories.Manager, clock Clock, quantizer models.Quantizer) LedgerService {
	if clock == nil {
		clock = SystemClock()
	}
	return &ledgerService{manager: manager, clock: clock, quantizer: quantizer}
}

func (s *ledgerService) Post(ctx context.Context, lines []models.EntryLine, memo *string, meta models.Meta) (*models.Journal, error) {
	normalized := make([]models.EntryLine, len(lines))
	for i, line := range lines {
		normalized[i] = line.Normalize()
	}

	idemKey, hasKey := meta.IdempotencyKey()

	var journal *models.Journal
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		var err error
		journal, err = s.postOnce(ctx, uow, normalized, memo, meta, idemKey, hasKey)
		return err
	})
	if err != nil {
		// A concurrent post with the same idempotency key won the insert
		// race; the unique constraint serialized us. Return its journal.
		if hasKey && apperrors.IsDuplicate(err) {
			var existing *models.Journal
			lookupErr := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
				var innerErr error
				existing, innerErr = uow.Journals.GetByIdempotencyKey(ctx, idemKey)
				return innerErr
			})
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return journal, nil
}

func (s *ledgerService) postOnce(
	ctx context.Context,
	uow *repositories.UnitOfWork,
	lines []models.EntryLine,
	memo *string,
	meta models.Meta,
	idemKey string,
	hasKey bool,
) (*models.Journal, error) {
	if hasKey {
		existing, err := uow.Journals.GetByIdempotencyKey(ctx, idemKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	codes := distinctCodes(lines)
	names := distinctNames(lines)

	currencies, err := uow.Currencies.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	base, err := uow.Currencies.GetBase(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := uow.Accounts.GetByFullNames(ctx, names)
	if err != nil {
		return nil, err
	}

	if err := validateEntrySet(lines, currencies, base, accounts, s.quantizer); err != nil {
		return nil, err
	}

	journal := &models.Journal{
		ID:         models.NewJournalID(),
		OccurredAt: s.clock.Now(),
		Memo:       memo,
		Meta:       meta,
	}
	if hasKey {
		journal.IdempotencyKey = &idemKey
	}

	journal.Lines = make([]models.TransactionLine, len(lines))
	for i, line := range lines {
		var rate *decimal.Decimal
		if line.ExchangeRate != nil {
			quantized := s.quantizer.Rate(*line.ExchangeRate)
			rate = &quantized
		}
		journal.Lines[i] = models.TransactionLine{
			ID:           uuid.NewString(),
			JournalID:    journal.ID,
			AccountID:    accounts[line.AccountFullName].ID,
			Position:     i,
			Side:         line.Side,
			Amount:       s.quantizer.Money(line.Amount),
			CurrencyCode: line.CurrencyCode,
			ExchangeRate: rate,
		}
	}

	if err := uow.Journals.Create(ctx, journal); err != nil {
		return nil, err
	}

	if err := s.applyAggregates(ctx, uow, journal); err != nil {
		return nil, err
	}
	return journal, nil
}

// applyAggregates folds the journal's lines into the per-account balance and
// per-day turnover aggregates, inside the same unit of work as the insert.
func (s *ledgerService) applyAggregates(ctx context.Context, uow *repositories.UnitOfWork, journal *models.Journal) error {
	deltas := make(map[string]decimal.Decimal)
	debits := make(map[string]decimal.Decimal)
	credits := make(map[string]decimal.Decimal)
	order := make([]string, 0, len(journal.Lines))

	for _, line := range journal.Lines {
		if _, seen := deltas[line.AccountID]; !seen {
			order = append(order, line.AccountID)
			deltas[line.AccountID] = decimal.Zero
			debits[line.AccountID] = decimal.Zero
			credits[line.AccountID] = decimal.Zero
		}
		deltas[line.AccountID] = deltas[line.AccountID].Add(line.SignedAmount())
		if line.Side == models.Debit {
			debits[line.AccountID] = debits[line.AccountID].Add(line.Amount)
		} else {
			credits[line.AccountID] = credits[line.AccountID].Add(line.Amount)
		}
	}

	day := models.DayOf(journal.OccurredAt)
	for _, accountID := range order {
		if !deltas[accountID].IsZero() {
			if err := uow.Aggregates.ApplyBalanceDelta(ctx, accountID, deltas[accountID]); err != nil {
				return err
			}
		}
		if err := uow.Aggregates.ApplyDailyTurnover(ctx, accountID, day, debits[accountID], credits[accountID]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ledgerService) Balance(ctx context.Context, accountFullName string, asOf *time.Time) (decimal.Decimal, error) {
	fullName := models.NormalizeFullName(accountFullName)

	balance := decimal.Zero
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		balance = decimal.Zero // the unit function may re-run on a transient failure
		account, err := uow.Accounts.GetByFullName(ctx, fullName)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil // unknown account reads as zero
			}
			return err
		}

		if asOf == nil || !asOf.Before(s.clock.Now()) {
			row, err := uow.Aggregates.GetBalance(ctx, account.ID)
			if err != nil {
				return err
			}
			if row != nil {
				balance = row.Balance
			}
			return nil
		}

		// Historical balance falls back to a line scan.
		lines, err := uow.Journals.LinesByAccount(ctx, account.ID, *asOf)
		if err != nil {
			return err
		}
		for _, line := range lines {
			balance = balance.Add(line.SignedAmount())
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *ledgerService) Ledger(ctx context.Context, query LedgerQuery) ([]*models.Journal, error) {
	fullName := models.NormalizeFullName(query.AccountFullName)
	if !strings.Contains(fullName, ":") {
		return nil, apperrors.NewValidation("account_full_name", "must be a hierarchical name with at least one ':'")
	}

	order := strings.ToUpper(strings.TrimSpace(query.Order))
	if order == "" {
		order = "ASC"
	}
	if order != "ASC" && order != "DESC" {
		return nil, apperrors.NewValidation("order", fmt.Sprintf("must be ASC or DESC, got %q", query.Order))
	}

	start := time.Unix(0, 0).UTC()
	if query.Start != nil {
		start = *query.Start
	}
	end := s.clock.Now()
	if query.End != nil {
		end = *query.End
	}
	if start.After(end) {
		return nil, apperrors.NewValidation("start", "must not be after end")
	}

	if query.Offset < 0 || (query.Limit != nil && *query.Limit <= 0) {
		return []*models.Journal{}, nil
	}

	var journals []*models.Journal
	err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
		account, err := uow.Accounts.GetByFullName(ctx, fullName)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil
			}
			return err
		}
		journals, err = uow.Journals.List(ctx, repositories.JournalFilter{
			AccountID: account.ID,
			Start:     &start,
			End:       &end,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(query.Meta) > 0 {
		filtered := journals[:0]
		for _, j := range journals {
			if j.Meta.Matches(query.Meta) {
				filtered = append(filtered, j)
			}
		}
		journals = filtered
	}

	if order == "DESC" {
		sort.SliceStable(journals, func(i, k int) bool {
			return journals[i].OccurredAt.After(journals[k].OccurredAt)
		})
	}

	if query.Offset >= len(journals) {
		return []*models.Journal{}, nil
	}
	journals = journals[query.Offset:]
	if query.Limit != nil && *query.Limit < len(journals) {
		journals = journals[:*query.Limit]
	}
	return journals, nil
}

func distinctCodes(lines []models.EntryLine) []string {
	seen := make(map[string]bool, len(lines))
	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.CurrencyCode] {
			seen[line.CurrencyCode] = true
			codes = append(codes, line.CurrencyCode)
		}
	}
	return codes
}

func distinctNames(lines []models.EntryLine) []string {
	seen := make(map[string]bool, len(lines))
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.AccountFullName] {
			seen[line.AccountFullName] = true
			names = append(names, line.AccountFullName)
		}
	}
	return names
}
