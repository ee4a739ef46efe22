package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
)

type journalRepository struct {
	tx *gorm.DB
}

// NewJournalRepository creates a journal repository bound to a transaction handle.
func NewJournalRepository(tx *gorm.DB) JournalRepository {
	return &journalRepository{tx: tx}
}

func (r *journalRepository) Create(ctx context.Context, journal *models.Journal) error {
	lines := journal.Lines
	journal.Lines = nil
	if err := r.tx.WithContext(ctx).Create(journal).Error; err != nil {
		journal.Lines = lines
		return fmt.Errorf("failed to create journal: %w", err)
	}
	for i := range lines {
		if err := r.tx.WithContext(ctx).Create(&lines[i]).Error; err != nil {
			journal.Lines = lines
			return fmt.Errorf("failed to create journal line %d: %w", i, err)
		}
	}
	journal.Lines = lines
	return nil
}

func (r *journalRepository) GetByID(ctx context.Context, id string) (*models.Journal, error) {
	var journal models.Journal
	err := r.tx.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&journal, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("journal", id)
		}
		return nil, fmt.Errorf("failed to get journal: %w", err)
	}
	return &journal, nil
}

func (r *journalRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Journal, error) {
	var journal models.Journal
	err := r.tx.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&journal, "idempotency_key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get journal by idempotency key: %w", err)
	}
	return &journal, nil
}

func (r *journalRepository) List(ctx context.Context, filter JournalFilter) ([]*models.Journal, error) {
	query := r.tx.WithContext(ctx).Model(&models.Journal{})

	if filter.AccountID != "" {
		query = query.Where(
			"id IN (?)",
			r.tx.Model(&models.TransactionLine{}).Select("journal_id").Where("account_id = ?", filter.AccountID),
		)
	}
	if filter.Start != nil {
		query = query.Where("occurred_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("occurred_at <= ?", *filter.End)
	}

	var journals []*models.Journal
	err := query.
		Order("occurred_at ASC, id ASC").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Find(&journals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list journals: %w", err)
	}
	return journals, nil
}

func (r *journalRepository) LinesByAccount(ctx context.Context, accountID string, until time.Time) ([]models.TransactionLine, error) {
	var lines []models.TransactionLine
	err := r.tx.WithContext(ctx).
		Joins("JOIN journals ON journals.id = transaction_lines.journal_id").
		Where("transaction_lines.account_id = ? AND journals.occurred_at <= ?", accountID, until).
		Order("journals.occurred_at ASC, transaction_lines.position ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan account lines: %w", err)
	}
	return lines, nil
}
