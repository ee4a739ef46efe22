package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tropicaldog17/soroban/internal/models"
)

type fxEventRepository struct {
	tx *gorm.DB
}

// NewFXEventRepository creates an FX event repository bound to a transaction handle.
func NewFXEventRepository(tx *gorm.DB) FXEventRepository {
	return &fxEventRepository{tx: tx}
}

func (r *fxEventRepository) Append(ctx context.Context, event *models.ExchangeRateEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := r.tx.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append FX event: %w", err)
	}
	return nil
}

func (r *fxEventRepository) List(ctx context.Context, code string, limit int) ([]*models.ExchangeRateEvent, error) {
	query := r.tx.WithContext(ctx).Model(&models.ExchangeRateEvent{})
	if code != "" {
		query = query.Where("code = ?", code)
	}
	query = query.Order("occurred_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var events []*models.ExchangeRateEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list FX events: %w", err)
	}
	return events, nil
}

func (r *fxEventRepository) ListIDsBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	query := r.tx.WithContext(ctx).Model(&models.ExchangeRateEvent{}).
		Where("occurred_at < ?", cutoff).
		Order("occurred_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ids []string
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired FX event ids: %w", err)
	}
	return ids, nil
}

func (r *fxEventRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.ExchangeRateEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var events []*models.ExchangeRateEvent
	err := r.tx.WithContext(ctx).
		Where("id IN ?", ids).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get FX events: %w", err)
	}
	return events, nil
}

func (r *fxEventRepository) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.tx.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ExchangeRateEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete FX events: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (r *fxEventRepository) CopyToArchive(ctx context.Context, ids []string, archivedAt time.Time) (int, error) {
	events, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	for _, e := range events {
		row := models.ExchangeRateEventArchive{
			ID:            e.ID,
			Code:          e.Code,
			Rate:          e.Rate,
			OccurredAt:    e.OccurredAt,
			PolicyApplied: e.PolicyApplied,
			Source:        e.Source,
			ArchivedAt:    archivedAt,
		}
		if err := r.tx.WithContext(ctx).Create(&row).Error; err != nil {
			return 0, fmt.Errorf("failed to archive FX event %s: %w", e.ID, err)
		}
	}
	return len(events), nil
}
