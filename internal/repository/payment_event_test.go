package repository_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_paymentEventRepository_Create_is_insert_once(t *testing.T) {
	ctx := testutil.MockContext()
	paymentEventRepo := repository.NewPaymentEventRepository()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	event := &entity.PaymentEvent{
		Base:             entity.Base{ID: uuid.NewString()},
		PaymentReference: "pay-1",
		EventKind:        entity.PaymentEventPurchase,
		UserID:           user.ID,
		PackageType:      entity.PackageOneTime,
	}

	inserted, err := paymentEventRepo.Create(ctx, event)
	require.NoError(t, err)
	require.True(t, inserted)

	// The same (reference, kind) hits the uniqueness constraint without an
	// error; the caller only sees "not inserted".
	dup := &entity.PaymentEvent{
		Base:             entity.Base{ID: uuid.NewString()},
		PaymentReference: "pay-1",
		EventKind:        entity.PaymentEventPurchase,
		UserID:           user.ID,
	}
	inserted, err = paymentEventRepo.Create(ctx, dup)
	require.NoError(t, err)
	require.False(t, inserted)

	// A different kind of the same reference is a new event.
	renewal := &entity.PaymentEvent{
		Base:             entity.Base{ID: uuid.NewString()},
		PaymentReference: "pay-1",
		EventKind:        entity.PaymentEventRenewal,
		UserID:           user.ID,
	}
	inserted, err = paymentEventRepo.Create(ctx, renewal)
	require.NoError(t, err)
	require.True(t, inserted)

	got, err := paymentEventRepo.GetByReference(ctx, "pay-1", entity.PaymentEventPurchase)
	require.NoError(t, err)
	require.Equal(t, event.ID, got.ID)

	events, err := paymentEventRepo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
}
