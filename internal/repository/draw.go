package repository

import (
	"context"
	"time"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type DrawRepository interface {
	Create(ctx context.Context, draw *entity.Draw) error
	GetByID(ctx context.Context, drawID string) (*entity.Draw, error)

	// GetCurrentMajor returns the non-completed major draw with the nearest
	// draw date, either active or frozen.
	GetCurrentMajor(ctx context.Context) (*entity.Draw, error)

	// GetNextQueuedMajor returns the queued major draw that activates first
	// after the given time.
	GetNextQueuedMajor(ctx context.Context, after time.Time) (*entity.Draw, error)

	GetNonTerminal(ctx context.Context) ([]entity.Draw, error)
	GetCompletedWithoutWinner(ctx context.Context) ([]entity.Draw, error)

	// UpdateStatus transitions the draw from one status to another with a
	// guard on the current status, so concurrent reconcilers cannot apply
	// the same transition twice. It reports whether the row changed.
	UpdateStatus(ctx context.Context, drawID string, from, to entity.DrawStatus, lock bool, now time.Time) (bool, error)

	// CheckAndAddEntries increments the denormalized total of a mini draw
	// only if the draw is active and the capacity is not exceeded. It
	// returns gorm.ErrRecordNotFound when the draw cannot take the entries.
	CheckAndAddEntries(ctx context.Context, drawID string, count int) error

	// CompleteIfFull marks a mini draw completed and locked once its
	// aggregated entries reached the minimum. It reports whether the draw
	// was completed by this call.
	CompleteIfFull(ctx context.Context, drawID string, now time.Time) (bool, error)

	// RecomputeTotalEntries re-derives the denormalized draw total from the
	// per-user aggregate rows. It must not run on a mini draw, where the
	// total doubles as the reservation counter of CheckAndAddEntries.
	RecomputeTotalEntries(ctx context.Context, drawID string) error
}

type drawRepository struct{}

func NewDrawRepository() *drawRepository {
	return &drawRepository{}
}

func (r *drawRepository) Create(ctx context.Context, draw *entity.Draw) error {
	return xcontext.DB(ctx).Create(draw).Error
}

func (r *drawRepository) GetByID(ctx context.Context, drawID string) (*entity.Draw, error) {
	var result entity.Draw
	if err := xcontext.DB(ctx).Take(&result, "id=?", drawID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetCurrentMajor(ctx context.Context) (*entity.Draw, error) {
	var result entity.Draw
	err := xcontext.DB(ctx).
		Where("type=? AND status IN (?)",
			entity.DrawMajor, []entity.DrawStatus{entity.DrawActive, entity.DrawFrozen}).
		Order("draw_date ASC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetNextQueuedMajor(ctx context.Context, after time.Time) (*entity.Draw, error) {
	var result entity.Draw
	err := xcontext.DB(ctx).
		Where("type=? AND status=? AND activation_date > ?",
			entity.DrawMajor, entity.DrawQueued, after).
		Order("activation_date ASC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawRepository) GetNonTerminal(ctx context.Context) ([]entity.Draw, error) {
	var result []entity.Draw
	err := xcontext.DB(ctx).
		Find(&result, "status IN (?)",
			[]entity.DrawStatus{entity.DrawQueued, entity.DrawActive, entity.DrawFrozen}).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) GetCompletedWithoutWinner(ctx context.Context) ([]entity.Draw, error) {
	var result []entity.Draw
	err := xcontext.DB(ctx).
		Where("status=?", entity.DrawCompleted).
		Where("id NOT IN (?)",
			xcontext.DB(ctx).Model(&entity.Winner{}).Select("draw_id")).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawRepository) UpdateStatus(
	ctx context.Context, drawID string, from, to entity.DrawStatus, lock bool, now time.Time,
) (bool, error) {
	updateMap := map[string]any{"status": to}
	if lock {
		updateMap["configuration_locked"] = true
		updateMap["locked_at"] = now
	}

	tx := xcontext.DB(ctx).
		Model(&entity.Draw{}).
		Where("id=? AND status=?", drawID, from).
		Updates(updateMap)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *drawRepository) CheckAndAddEntries(ctx context.Context, drawID string, count int) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Draw{}).
		Where("id=? AND status=? AND minimum_entries > 0 AND total_entries + ? <= minimum_entries",
			drawID, entity.DrawActive, count).
		Update("total_entries", gorm.Expr("total_entries+?", count))
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *drawRepository) CompleteIfFull(ctx context.Context, drawID string, now time.Time) (bool, error) {
	tx := xcontext.DB(ctx).
		Model(&entity.Draw{}).
		Where("id=? AND status=? AND minimum_entries > 0 AND total_entries >= minimum_entries",
			drawID, entity.DrawActive).
		Updates(map[string]any{
			"status":               entity.DrawCompleted,
			"configuration_locked": true,
			"locked_at":            now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *drawRepository) RecomputeTotalEntries(ctx context.Context, drawID string) error {
	return xcontext.DB(ctx).
		Model(&entity.Draw{}).
		Where("id=?", drawID).
		Update("total_entries", xcontext.DB(ctx).
			Model(&entity.DrawEntry{}).
			Select("COALESCE(SUM(total_entries), 0)").
			Where("draw_id=?", drawID),
		).Error
}
