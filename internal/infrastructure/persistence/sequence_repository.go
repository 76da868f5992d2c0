package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSequenceRepository hands out numbers from the sequences table. The
// upsert takes a row lock on the counter, so concurrent callers in other
// transactions wait until the holder commits or rolls back.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next increments the counter of scope and returns the new value
func (r *GormSequenceRepository) Next(ctx context.Context, scope string) (int64, error) {
	if strings.TrimSpace(scope) == "" {
		return 0, errors.New("sequence scope is required")
	}
	var value int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO sequences (scope, value, updated_at) VALUES (?, 1, CURRENT_TIMESTAMP)
		 ON CONFLICT (scope) DO UPDATE SET value = sequences.value + 1, updated_at = CURRENT_TIMESTAMP
		 RETURNING value`, scope).
		Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Seed raises the counter of scope to at least value
func (r *GormSequenceRepository) Seed(ctx context.Context, scope string, value int64) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO sequences (scope, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (scope) DO UPDATE SET
		   value = CASE WHEN sequences.value < excluded.value THEN excluded.value ELSE sequences.value END,
		   updated_at = CURRENT_TIMESTAMP`, scope, value).Error
}

// Current returns the last issued number of scope
func (r *GormSequenceRepository) Current(ctx context.Context, scope string) (int64, error) {
	var model models.SequenceModel
	err := r.db.WithContext(ctx).Where("scope = ?", scope).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return model.Value, nil
}

var _ shared.Sequencer = (*GormSequenceRepository)(nil)
