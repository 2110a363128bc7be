package repository

import (
	"context"
	"time"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReferralRepository interface {
	// Create inserts the referral event unless one already exists for the
	// same (referrer, code, invitee). It reports whether a row was
	// inserted.
	Create(ctx context.Context, event *entity.ReferralEvent) (bool, error)

	GetPendingByInvitee(ctx context.Context, inviteeID string) ([]entity.ReferralEvent, error)
	CountByInvitee(ctx context.Context, inviteeID string) (int64, error)

	// Convert transitions a pending event to converted. It returns
	// gorm.ErrRecordNotFound when the event already converted, which makes
	// conversion exactly-once under concurrent triggers.
	Convert(ctx context.Context, eventID string, now time.Time) error
}

type referralRepository struct{}

func NewReferralRepository() *referralRepository {
	return &referralRepository{}
}

func (r *referralRepository) Create(ctx context.Context, event *entity.ReferralEvent) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "referrer_id"},
				{Name: "referral_code"},
				{Name: "invitee_user_id"},
			},
			DoNothing: true,
		}).
		Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *referralRepository) GetPendingByInvitee(
	ctx context.Context, inviteeID string,
) ([]entity.ReferralEvent, error) {
	var result []entity.ReferralEvent
	err := xcontext.DB(ctx).
		Find(&result, "invitee_user_id=? AND status=?", inviteeID, entity.ReferralPending).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *referralRepository) CountByInvitee(ctx context.Context, inviteeID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.ReferralEvent{}).
		Where("invitee_user_id=?", inviteeID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *referralRepository) Convert(ctx context.Context, eventID string, now time.Time) error {
	tx := xcontext.DB(ctx).
		Model(&entity.ReferralEvent{}).
		Where("id=? AND status=?", eventID, entity.ReferralPending).
		Updates(map[string]any{
			"status":       entity.ReferralConverted,
			"converted_at": now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
