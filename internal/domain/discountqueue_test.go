package domain

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func enqueueItem(
	t *testing.T, d DiscountQueueDomain, ctx context.Context, userID, paymentRef, pkgType string, hours int,
) {
	t.Helper()
	err := d.Enqueue(ctx, userID, model.PackageDescriptor{
		Type:          pkgType,
		ID:            uuid.NewString(),
		DiscountHours: hours,
	}, paymentRef, time.Now())
	require.NoError(t, err)
}

func Test_discountQueueDomain_fifo_activation(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, discountQueueDomain, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	enqueueItem(t, discountQueueDomain, ctx, user.ID, "pay-1", "one-time", 24)
	enqueueItem(t, discountQueueDomain, ctx, user.ID, "pay-2", "one-time", 48)

	resp, err := discountQueueDomain.GetMyQueue(ctx, &model.GetMyDiscountQueueRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	// First purchase holds the active slot, second waits at position one
	// with no dates yet.
	require.Equal(t, string(entity.DiscountActive), resp.Items[0].Status)
	require.Equal(t, "pay-1", resp.Items[0].PaymentReference)
	require.Equal(t, 0, resp.Items[0].QueuePosition)
	require.NotNil(t, resp.Items[0].StartDate)
	require.NotNil(t, resp.Items[0].EndDate)
	require.WithinDuration(t,
		resp.Items[0].StartDate.Add(24*time.Hour), *resp.Items[0].EndDate, time.Second)

	require.Equal(t, string(entity.DiscountQueued), resp.Items[1].Status)
	require.Equal(t, 1, resp.Items[1].QueuePosition)
	require.Nil(t, resp.Items[1].StartDate)
}

func Test_discountQueueDomain_subscription_preempts(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, discountQueueDomain, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	enqueueItem(t, discountQueueDomain, ctx, user.ID, "pay-oneoff", "one-time", 24)
	enqueueItem(t, discountQueueDomain, ctx, user.ID, "pay-sub", "subscription", 720)

	resp, err := discountQueueDomain.GetMyQueue(ctx, &model.GetMyDiscountQueueRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	// The subscription takes the active slot the moment it arrives.
	require.Equal(t, "pay-sub", resp.Items[0].PaymentReference)
	require.Equal(t, string(entity.DiscountActive), resp.Items[0].Status)
	require.True(t, resp.Items[0].IsSubscription)

	// The preempted one-off waits with its full duration intact: its dates
	// are cleared and recomputed when it activates again.
	require.Equal(t, "pay-oneoff", resp.Items[1].PaymentReference)
	require.Equal(t, string(entity.DiscountQueued), resp.Items[1].Status)
	require.Nil(t, resp.Items[1].StartDate)
	require.Nil(t, resp.Items[1].EndDate)
}

func Test_discountQueueDomain_expiry(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, discountQueueDomain, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	discountRepo := repository.NewPartnerDiscountRepository()

	// An active item whose window closed and a queued item that waited past
	// its expiry date.
	now := time.Now()
	require.NoError(t, discountRepo.Create(ctx, &entity.PartnerDiscountItem{
		Base:             entity.Base{ID: uuid.NewString()},
		UserID:           user.ID,
		PaymentReference: "pay-old-active",
		PackageType:      entity.PackageOneTime,
		DiscountHours:    24,
		Status:           entity.DiscountActive,
		QueuePosition:    0,
		PurchaseDate:     now.Add(-48 * time.Hour),
		StartDate:        sql.NullTime{Time: now.Add(-30 * time.Hour), Valid: true},
		EndDate:          sql.NullTime{Time: now.Add(-6 * time.Hour), Valid: true},
		ExpiryDate:       now.Add(300 * 24 * time.Hour),
	}))
	require.NoError(t, discountRepo.Create(ctx, &entity.PartnerDiscountItem{
		Base:             entity.Base{ID: uuid.NewString()},
		UserID:           user.ID,
		PaymentReference: "pay-stale",
		PackageType:      entity.PackageOneTime,
		DiscountHours:    24,
		Status:           entity.DiscountQueued,
		QueuePosition:    1,
		PurchaseDate:     now.Add(-400 * 24 * time.Hour),
		ExpiryDate:       now.Add(-24 * time.Hour),
	}))
	require.NoError(t, discountRepo.Create(ctx, &entity.PartnerDiscountItem{
		Base:             entity.Base{ID: uuid.NewString()},
		UserID:           user.ID,
		PaymentReference: "pay-fresh",
		PackageType:      entity.PackageOneTime,
		DiscountHours:    24,
		Status:           entity.DiscountQueued,
		QueuePosition:    2,
		PurchaseDate:     now.Add(-time.Hour),
		ExpiryDate:       now.Add(300 * 24 * time.Hour),
	}))

	changed, err := discountQueueDomain.Process(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, changed)

	resp, err := discountQueueDomain.GetMyQueue(ctx, &model.GetMyDiscountQueueRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	// Only the fresh item survived and it moved into the active slot.
	require.Equal(t, "pay-fresh", resp.Items[0].PaymentReference)
	require.Equal(t, string(entity.DiscountActive), resp.Items[0].Status)
	require.Equal(t, 0, resp.Items[0].QueuePosition)
}

func Test_discountQueueDomain_cancel_frees_the_slot(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, discountQueueDomain, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	enqueueItem(t, discountQueueDomain, ctx, user.ID, "pay-a", "one-time", 24)
	enqueueItem(t, discountQueueDomain, ctx, user.ID, "pay-b", "one-time", 24)

	resp, err := discountQueueDomain.Cancel(ctx, &model.CancelDiscountRequest{
		UserID:           user.ID,
		PaymentReference: "pay-a",
	})
	require.NoError(t, err)
	require.True(t, resp.Found)

	queue, err := discountQueueDomain.GetMyQueue(ctx, &model.GetMyDiscountQueueRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)
	require.Equal(t, "pay-b", queue.Items[0].PaymentReference)
	require.Equal(t, string(entity.DiscountActive), queue.Items[0].Status)
	require.Equal(t, 0, queue.Items[0].QueuePosition)

	// A second refund delivery of the same payment is a no-op.
	resp, err = discountQueueDomain.Cancel(ctx, &model.CancelDiscountRequest{
		UserID:           user.ID,
		PaymentReference: "pay-a",
	})
	require.NoError(t, err)
	require.True(t, resp.Found)

	// Unknown payment references report not found instead of failing.
	resp, err = discountQueueDomain.Cancel(ctx, &model.CancelDiscountRequest{
		UserID:           user.ID,
		PaymentReference: "pay-unknown",
	})
	require.NoError(t, err)
	require.False(t, resp.Found)
}

func Test_discountQueueDomain_prunes_expired_history(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, discountQueueDomain, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	discountRepo := repository.NewPartnerDiscountRepository()
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, discountRepo.Create(ctx, &entity.PartnerDiscountItem{
			Base:             entity.Base{ID: uuid.NewString()},
			UserID:           user.ID,
			PaymentReference: uuid.NewString(),
			PackageType:      entity.PackageOneTime,
			Status:           entity.DiscountExpired,
			PurchaseDate:     now.Add(-time.Duration(i+2) * 24 * time.Hour),
			EndDate:          sql.NullTime{Time: now.Add(-time.Duration(i+1) * 24 * time.Hour), Valid: true},
			ExpiryDate:       now.Add(300 * 24 * time.Hour),
		}))
	}

	_, err = discountQueueDomain.Process(ctx, user.ID)
	require.NoError(t, err)

	// Only the three most recent expired items are kept.
	expired, err := discountRepo.GetExpiredByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, expired, 3)
}
