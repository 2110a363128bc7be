package repository

import (
	"context"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
)

type PartnerDiscountRepository interface {
	Create(ctx context.Context, item *entity.PartnerDiscountItem) error

	// GetQueueByUserID returns the user's non-terminal items (active and
	// queued) ordered by queue position.
	GetQueueByUserID(ctx context.Context, userID string) ([]entity.PartnerDiscountItem, error)

	GetByPaymentReference(ctx context.Context, userID, paymentRef string) (*entity.PartnerDiscountItem, error)
	GetExpiredByUserID(ctx context.Context, userID string) ([]entity.PartnerDiscountItem, error)

	Update(ctx context.Context, itemID string, values map[string]any) error
	Delete(ctx context.Context, itemIDs []string) error
}

type partnerDiscountRepository struct{}

func NewPartnerDiscountRepository() *partnerDiscountRepository {
	return &partnerDiscountRepository{}
}

func (r *partnerDiscountRepository) Create(ctx context.Context, item *entity.PartnerDiscountItem) error {
	return xcontext.DB(ctx).Create(item).Error
}

func (r *partnerDiscountRepository) GetQueueByUserID(
	ctx context.Context, userID string,
) ([]entity.PartnerDiscountItem, error) {
	var result []entity.PartnerDiscountItem
	err := xcontext.DB(ctx).
		Where("user_id=? AND status IN (?)",
			userID, []entity.DiscountStatus{entity.DiscountActive, entity.DiscountQueued}).
		Order("queue_position ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *partnerDiscountRepository) GetByPaymentReference(
	ctx context.Context, userID, paymentRef string,
) (*entity.PartnerDiscountItem, error) {
	var result entity.PartnerDiscountItem
	err := xcontext.DB(ctx).
		Take(&result, "user_id=? AND payment_reference=?", userID, paymentRef).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *partnerDiscountRepository) GetExpiredByUserID(
	ctx context.Context, userID string,
) ([]entity.PartnerDiscountItem, error) {
	var result []entity.PartnerDiscountItem
	err := xcontext.DB(ctx).
		Where("user_id=? AND status=?", userID, entity.DiscountExpired).
		Order("end_date DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *partnerDiscountRepository) Update(
	ctx context.Context, itemID string, values map[string]any,
) error {
	return xcontext.DB(ctx).
		Model(&entity.PartnerDiscountItem{}).
		Where("id=?", itemID).
		Updates(values).Error
}

func (r *partnerDiscountRepository) Delete(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	return xcontext.DB(ctx).
		Delete(&entity.PartnerDiscountItem{}, "id IN (?)", itemIDs).Error
}
