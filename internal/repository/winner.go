package repository

import (
	"context"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type WinnerRepository interface {
	// Create inserts the winner snapshot unless the draw already has one.
	// It reports whether the row was inserted.
	Create(ctx context.Context, winner *entity.Winner) (bool, error)

	GetByDrawID(ctx context.Context, drawID string) (*entity.Winner, error)
	GetListByUserID(ctx context.Context, userID string) ([]entity.Winner, error)
}

type winnerRepository struct{}

func NewWinnerRepository() *winnerRepository {
	return &winnerRepository{}
}

func (r *winnerRepository) Create(ctx context.Context, winner *entity.Winner) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "draw_id"}},
			DoNothing: true,
		}).
		Create(winner)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *winnerRepository) GetByDrawID(ctx context.Context, drawID string) (*entity.Winner, error) {
	var result entity.Winner
	if err := xcontext.DB(ctx).Take(&result, "draw_id=?", drawID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *winnerRepository) GetListByUserID(ctx context.Context, userID string) ([]entity.Winner, error) {
	var result []entity.Winner
	if err := xcontext.DB(ctx).Find(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return result, nil
}
