package repository

import (
	"context"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type PaymentEventRepository interface {
	// Create inserts the payment event if no row exists yet for its
	// (payment_reference, event_kind). It reports whether the row was
	// inserted; false means the payment was already processed. This is the
	// idempotency checkpoint: the uniqueness constraint makes it safe
	// across processes.
	Create(ctx context.Context, event *entity.PaymentEvent) (bool, error)

	GetByReference(ctx context.Context, paymentRef string, kind entity.PaymentEventKind) (*entity.PaymentEvent, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.PaymentEvent, error)
}

type paymentEventRepository struct{}

func NewPaymentEventRepository() *paymentEventRepository {
	return &paymentEventRepository{}
}

func (r *paymentEventRepository) Create(ctx context.Context, event *entity.PaymentEvent) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "payment_reference"},
				{Name: "event_kind"},
			},
			DoNothing: true,
		}).
		Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected > 0, nil
}

func (r *paymentEventRepository) GetByReference(
	ctx context.Context, paymentRef string, kind entity.PaymentEventKind,
) (*entity.PaymentEvent, error) {
	var result entity.PaymentEvent
	err := xcontext.DB(ctx).
		Take(&result, "payment_reference=? AND event_kind=?", paymentRef, kind).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *paymentEventRepository) GetByUserID(ctx context.Context, userID string) ([]entity.PaymentEvent, error) {
	var result []entity.PaymentEvent
	if err := xcontext.DB(ctx).Find(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return result, nil
}
