package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DrawEntryRepository interface {
	// Upsert adds entries to the user's aggregate row of the draw. The
	// increments are applied at the column level, so two concurrent grants
	// for the same user never lose updates.
	Upsert(ctx context.Context, drawID, userID string, source entity.EntrySource, count int) error

	GetByDrawAndUser(ctx context.Context, drawID, userID string) (*entity.DrawEntry, error)
	GetListByDraw(ctx context.Context, drawID string) ([]entity.DrawEntry, error)
	GetListByUser(ctx context.Context, userID string) ([]entity.DrawEntry, error)
	SumTotalByDraw(ctx context.Context, drawID string) (int, error)
}

type drawEntryRepository struct{}

func NewDrawEntryRepository() *drawEntryRepository {
	return &drawEntryRepository{}
}

func sourceColumn(source entity.EntrySource) string {
	switch source {
	case entity.EntrySourceMembership:
		return "membership_entries"
	case entity.EntrySourceOneTime:
		return "one_time_entries"
	case entity.EntrySourceUpsell:
		return "upsell_entries"
	case entity.EntrySourceMiniDraw:
		return "mini_draw_entries"
	case entity.EntrySourceReferral:
		return "referral_entries"
	}

	return ""
}

func (r *drawEntryRepository) Upsert(
	ctx context.Context, drawID, userID string, source entity.EntrySource, count int,
) error {
	column := sourceColumn(source)
	if column == "" {
		return gorm.ErrInvalidField
	}

	now := time.Now()
	row := &entity.DrawEntry{
		Base:          entity.Base{ID: uuid.NewString()},
		DrawID:        drawID,
		UserID:        userID,
		TotalEntries:  count,
		FirstAddedAt:  now,
		LastUpdatedAt: now,
	}

	switch source {
	case entity.EntrySourceMembership:
		row.MembershipEntries = count
	case entity.EntrySourceOneTime:
		row.OneTimeEntries = count
	case entity.EntrySourceUpsell:
		row.UpsellEntries = count
	case entity.EntrySourceMiniDraw:
		row.MiniDrawEntries = count
	case entity.EntrySourceReferral:
		row.ReferralEntries = count
	}

	return xcontext.DB(ctx).Model(&entity.DrawEntry{}).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "draw_id"},
				{Name: "user_id"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"total_entries":   gorm.Expr("total_entries + ?", count),
				column:            gorm.Expr(column+" + ?", count),
				"last_updated_at": now,
			}),
		}).
		Create(row).Error
}

func (r *drawEntryRepository) GetByDrawAndUser(
	ctx context.Context, drawID, userID string,
) (*entity.DrawEntry, error) {
	var result entity.DrawEntry
	err := xcontext.DB(ctx).
		Take(&result, "draw_id=? AND user_id=?", drawID, userID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *drawEntryRepository) GetListByDraw(ctx context.Context, drawID string) ([]entity.DrawEntry, error) {
	var result []entity.DrawEntry
	err := xcontext.DB(ctx).
		Where("draw_id=?", drawID).
		Order("first_added_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawEntryRepository) GetListByUser(ctx context.Context, userID string) ([]entity.DrawEntry, error) {
	var result []entity.DrawEntry
	if err := xcontext.DB(ctx).Find(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *drawEntryRepository) SumTotalByDraw(ctx context.Context, drawID string) (int, error) {
	var sum int64
	err := xcontext.DB(ctx).
		Model(&entity.DrawEntry{}).
		Select("COALESCE(SUM(total_entries), 0)").
		Where("draw_id=?", drawID).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}

	return int(sum), nil
}
