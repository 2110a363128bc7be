package repository

import (
	"context"
	"errors"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByReferralCode(ctx context.Context, code string) (*entity.User, error)
	IncreaseBenefits(ctx context.Context, userID string, entries, points uint64) error
	DecreasePoints(ctx context.Context, userID string, points uint64) error
	IncreaseReferralConversions(ctx context.Context, userID string, delta int) error
	MarkEmailVerified(ctx context.Context, userID string) error
	MarkHasPurchase(ctx context.Context, userID string) error
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	var result entity.User
	if err := xcontext.DB(ctx).Take(&result, "referral_code=?", code).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) IncreaseBenefits(
	ctx context.Context, userID string, entries, points uint64,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", userID).
		Updates(map[string]any{
			"accumulated_entries": gorm.Expr("accumulated_entries+?", entries),
			"rewards_points":      gorm.Expr("rewards_points+?", points),
		})

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of rows effected is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) DecreasePoints(ctx context.Context, userID string, points uint64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=? AND rewards_points >= ?", userID, points).
		Update("rewards_points", gorm.Expr("rewards_points-?", points))

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) IncreaseReferralConversions(
	ctx context.Context, userID string, delta int,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", userID).
		Update("referral_conversions", gorm.Expr("referral_conversions+?", delta))

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	return xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", userID).
		Update("is_email_verified", true).Error
}

func (r *userRepository) MarkHasPurchase(ctx context.Context, userID string) error {
	return xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id=?", userID).
		Update("has_any_purchase", true).Error
}
