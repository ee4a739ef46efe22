package models

import (
	"strings"
	"time"

	apperrors "github.com/tropicaldog17/soroban/internal/errors"
)

// TTLMode selects what the FX-audit TTL executor does with expired events.
type TTLMode string

const (
	TTLModeNone    TTLMode = "none"
	TTLModeDelete  TTLMode = "delete"
	TTLModeArchive TTLMode = "archive"
)

// ParseTTLMode normalizes and validates a TTL mode string.
func ParseTTLMode(s string) (TTLMode, error) {
	switch TTLMode(strings.ToLower(strings.TrimSpace(s))) {
	case TTLModeNone:
		return TTLModeNone, nil
	case TTLModeDelete:
		return TTLModeDelete, nil
	case TTLModeArchive:
		return TTLModeArchive, nil
	}
	return "", apperrors.NewValidation("mode", "must be none, delete or archive")
}

// TTLBatch is one window into the planned id list: ids[Offset:Offset+Size].
type TTLBatch struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}

// TTLPlan describes exactly which expired FX events a TTL run would touch
// and in which batches. Plans are computed up front so a run is inspectable
// (and a dry run is free).
type TTLPlan struct {
	Cutoff      time.Time  `json:"cutoff"`
	Mode        TTLMode    `json:"mode"`
	DryRun      bool       `json:"dry_run"`
	TotalOld    int        `json:"total_old"`
	Batches     []TTLBatch `json:"batches"`
	OldEventIDs []string   `json:"old_event_ids"`
}

// TTLResult reports what a TTL execution actually did.
type TTLResult struct {
	Mode            TTLMode `json:"mode"`
	ArchivedCount   int     `json:"archived_count"`
	DeletedCount    int     `json:"deleted_count"`
	BatchesExecuted int     `json:"batches_executed"`
}
