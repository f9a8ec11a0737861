package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nextSequenceSQL increments the counter of (prefix, period), creating it at 1.
// The conflicting row stays locked until the caller's transaction ends, so
// concurrent callers are serialized and never see the same value.
const nextSequenceSQL = `INSERT INTO number_sequences (id, prefix, period, last_sequence, created_at, updated_at)
VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT (prefix, period) DO UPDATE
SET last_sequence = number_sequences.last_sequence + 1, updated_at = EXCLUDED.updated_at
RETURNING last_sequence`

// GormNumberSequenceRepository hands out document numbers from number_sequences
type GormNumberSequenceRepository struct {
	db *gorm.DB
}

// NewGormNumberSequenceRepository creates a new GormNumberSequenceRepository
func NewGormNumberSequenceRepository(db *gorm.DB) *GormNumberSequenceRepository {
	return &GormNumberSequenceRepository{db: db}
}

// Next increments and returns the sequence for prefix and period
func (r *GormNumberSequenceRepository) Next(ctx context.Context, prefix, period string) (int64, error) {
	now := time.Now().UTC()
	var seq int64
	if err := r.db.WithContext(ctx).
		Raw(nextSequenceSQL, uuid.New(), prefix, period, now, now).
		Scan(&seq).Error; err != nil {
		return 0, fmt.Errorf("upsert number sequence: %w", err)
	}
	if seq < 1 {
		return 0, fmt.Errorf("number sequence %s-%s returned %d", prefix, period, seq)
	}
	return seq, nil
}

// Ensure GormNumberSequenceRepository implements NumberSequenceRepository
var _ billing.NumberSequenceRepository = (*GormNumberSequenceRepository)(nil)
