package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
	"github.com/tropicaldog17/soroban/internal/models"
	"github.com/tropicaldog17/soroban/internal/repositories"
)

// ttlSafetyCap bounds how many expired events a single plan may cover.
const ttlSafetyCap = 100000

// ttlService implements the TTLService interface.
type ttlService struct {
	manager *repositories.Manager
	clock   Clock
	log     *zap.Logger
}

// NewTTLService creates the FX-audit retention planner and executor.
func NewTTLService(manager *repositories.Manager, clock Clock, log *zap.Logger) TTLService {
	if clock == nil {
		clock = SystemClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ttlService{manager: manager, clock: clock, log: log}
}

func (s *ttlService) Plan(ctx context.Context, req TTLRequest) (*models.TTLPlan, error) {
	if req.RetentionDays < 0 {
		return nil, apperrors.NewValidation("retention_days", "must be >= 0")
	}
	if req.BatchSize <= 0 {
		return nil, apperrors.NewValidation("batch_size", "must be > 0")
	}
	mode, err := models.ParseTTLMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if req.Limit != nil && *req.Limit < 0 {
		return nil, apperrors.NewValidation("limit", "must be >= 0")
	}

	scanLimit := ttlSafetyCap
	if req.Limit != nil && *req.Limit < scanLimit {
		scanLimit = *req.Limit
	}

	cutoff := s.clock.Now().AddDate(0, 0, -req.RetentionDays)

	var ids []string
	if scanLimit > 0 {
		err = s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
			var innerErr error
			ids, innerErr = uow.FXEvents.ListIDsBefore(ctx, cutoff, scanLimit)
			return innerErr
		})
		if err != nil {
			return nil, err
		}
	}

	batches := make([]models.TTLBatch, 0, (len(ids)+req.BatchSize-1)/req.BatchSize)
	for offset := 0; offset < len(ids); offset += req.BatchSize {
		size := req.BatchSize
		if offset+size > len(ids) {
			size = len(ids) - offset
		}
		batches = append(batches, models.TTLBatch{Offset: offset, Size: size})
	}

	return &models.TTLPlan{
		Cutoff:      cutoff,
		Mode:        mode,
		DryRun:      req.DryRun,
		TotalOld:    len(ids),
		Batches:     batches,
		OldEventIDs: ids,
	}, nil
}

func (s *ttlService) Execute(ctx context.Context, plan *models.TTLPlan) (*models.TTLResult, error) {
	if plan == nil {
		return nil, apperrors.NewValidation("plan", "is required")
	}
	if _, err := models.ParseTTLMode(string(plan.Mode)); err != nil {
		return nil, err
	}
	if err := checkPlanConsistency(plan); err != nil {
		return nil, err
	}

	result := &models.TTLResult{Mode: plan.Mode}
	if plan.DryRun || plan.Mode == models.TTLModeNone {
		return result, nil
	}

	for i, batch := range plan.Batches {
		slice := plan.OldEventIDs[batch.Offset : batch.Offset+batch.Size]

		// Counters stay attempt-local: the unit function may re-run on a
		// transient failure, so they fold into the result only after commit.
		var archived, deleted int
		err := s.manager.Do(ctx, func(ctx context.Context, uow *repositories.UnitOfWork) error {
			archived, deleted = 0, 0
			if plan.Mode == models.TTLModeArchive {
				n, err := uow.FXEvents.CopyToArchive(ctx, slice, s.clock.Now())
				if err != nil {
					return err
				}
				archived = n
			}
			n, err := uow.FXEvents.DeleteByIDs(ctx, slice)
			if err != nil {
				return err
			}
			deleted = n
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("TTL batch %d failed: %w", i, err)
		}

		result.ArchivedCount += archived
		result.DeletedCount += deleted
		result.BatchesExecuted++
		s.log.Info("TTL batch executed",
			zap.Int("batch", i),
			zap.Int("size", batch.Size),
			zap.String("mode", string(plan.Mode)))
	}
	return result, nil
}

// checkPlanConsistency verifies the batch windows partition the id list
// exactly: contiguous, non-empty, covering every id once.
func checkPlanConsistency(plan *models.TTLPlan) error {
	if plan.TotalOld != len(plan.OldEventIDs) {
		return apperrors.NewValidation("plan", "total_old does not match id list")
	}
	if (plan.Mode == models.TTLModeDelete || plan.Mode == models.TTLModeArchive) &&
		len(plan.OldEventIDs) == 0 && len(plan.Batches) > 0 {
		return apperrors.NewValidation("plan", "batches present but id list is empty")
	}
	covered := 0
	for i, batch := range plan.Batches {
		if batch.Size <= 0 {
			return apperrors.NewValidation("plan", fmt.Sprintf("batch %d is empty", i))
		}
		if batch.Offset != covered {
			return apperrors.NewValidation("plan", fmt.Sprintf("batch %d does not continue at offset %d", i, covered))
		}
		covered += batch.Size
	}
	if covered != len(plan.OldEventIDs) {
		return apperrors.NewValidation("plan", "batches do not cover the id list exactly")
	}
	return nil
}
