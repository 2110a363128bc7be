package repository

import (
	"context"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	GetByPaymentReference(ctx context.Context, paymentRef string) (*entity.Purchase, error)
	GetListByUserID(ctx context.Context, userID string) ([]entity.Purchase, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

type purchaseRepository struct{}

func NewPurchaseRepository() *purchaseRepository {
	return &purchaseRepository{}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *entity.Purchase) error {
	return xcontext.DB(ctx).Create(purchase).Error
}

func (r *purchaseRepository) GetByPaymentReference(
	ctx context.Context, paymentRef string,
) (*entity.Purchase, error) {
	var result entity.Purchase
	if err := xcontext.DB(ctx).Take(&result, "payment_reference=?", paymentRef).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *purchaseRepository) GetListByUserID(ctx context.Context, userID string) ([]entity.Purchase, error) {
	var result []entity.Purchase
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("purchased_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *purchaseRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Purchase{}).
		Where("user_id=?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
