package domain

import (
	"testing"
	"time"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func newTestDomains() (
	BenefitDomain, DrawStateDomain, EntryDomain, DiscountQueueDomain, ReferralDomain,
) {
	userRepo := repository.NewUserRepository()
	paymentEventRepo := repository.NewPaymentEventRepository()
	purchaseRepo := repository.NewPurchaseRepository()
	drawRepo := repository.NewDrawRepository()
	drawEntryRepo := repository.NewDrawEntryRepository()
	winnerRepo := repository.NewWinnerRepository()
	discountRepo := repository.NewPartnerDiscountRepository()
	referralRepo := repository.NewReferralRepository()

	entryDomain := NewEntryDomain(drawRepo, drawEntryRepo, nil)
	drawStateDomain := NewDrawStateDomain(drawRepo, drawEntryRepo, winnerRepo, entryDomain, nil)
	discountQueueDomain := NewDiscountQueueDomain(discountRepo, paymentEventRepo)
	referralDomain := NewReferralDomain(referralRepo, userRepo, drawStateDomain, nil)
	benefitDomain := NewBenefitDomain(
		paymentEventRepo, purchaseRepo, userRepo,
		drawStateDomain, discountQueueDomain, referralDomain, nil, nil)

	return benefitDomain, drawStateDomain, entryDomain, discountQueueDomain, referralDomain
}

func Test_benefitDomain_GrantBenefits(t *testing.T) {
	ctx := testutil.MockContext()
	benefitDomain, _, _, _, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	draw, err := testutil.SampleDraw(ctx, nil)
	require.NoError(t, err)

	resp, err := benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-001",
		UserID:           user.ID,
		Package: model.PackageDescriptor{
			Type:    "one-time",
			ID:      "starter-pack",
			Name:    "Starter Pack",
			Entries: 10,
			Points:  100,
			Price:   9.99,
		},
		Origin: "webhook",
	})
	require.NoError(t, err)
	require.True(t, resp.Granted)
	require.False(t, resp.AlreadyProcessed)

	userRepo := repository.NewUserRepository()
	updated, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(10), updated.AccumulatedEntries)
	require.Equal(t, uint64(100), updated.RewardsPoints)
	require.True(t, updated.HasAnyPurchase)

	drawEntryRepo := repository.NewDrawEntryRepository()
	entry, err := drawEntryRepo.GetByDrawAndUser(ctx, draw.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, 10, entry.TotalEntries)
	require.Equal(t, 10, entry.OneTimeEntries)
}

func Test_benefitDomain_GrantBenefits_duplicate_delivery(t *testing.T) {
	ctx := testutil.MockContext()
	benefitDomain, _, _, _, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = testutil.SampleDraw(ctx, nil)
	require.NoError(t, err)

	req := &model.GrantBenefitsRequest{
		PaymentReference: "pay-dup",
		UserID:           user.ID,
		Package: model.PackageDescriptor{
			Type:    "one-time",
			ID:      "starter-pack",
			Entries: 10,
			Points:  100,
		},
	}

	resp, err := benefitDomain.GrantBenefits(ctx, req)
	require.NoError(t, err)
	require.True(t, resp.Granted)

	// The second delivery of the same payment changes nothing.
	resp, err = benefitDomain.GrantBenefits(ctx, req)
	require.NoError(t, err)
	require.False(t, resp.Granted)
	require.True(t, resp.AlreadyProcessed)

	userRepo := repository.NewUserRepository()
	updated, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(10), updated.AccumulatedEntries)
	require.Equal(t, uint64(100), updated.RewardsPoints)

	// A renewal under the same reference is a different event and grants
	// again.
	req.EventKind = "renewal"
	resp, err = benefitDomain.GrantBenefits(ctx, req)
	require.NoError(t, err)
	require.True(t, resp.Granted)

	updated, err = userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(20), updated.AccumulatedEntries)
}

func Test_benefitDomain_GrantBenefits_validations(t *testing.T) {
	ctx := testutil.MockContext()
	benefitDomain, _, _, _, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-x",
		UserID:           user.ID,
		Package:          model.PackageDescriptor{Type: "lifetime", Entries: 1},
	})
	require.Error(t, err)

	// A mini-draw package must name its draw.
	_, err = benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-y",
		UserID:           user.ID,
		Package:          model.PackageDescriptor{Type: "mini-draw", Entries: 1},
	})
	require.Error(t, err)

	_, err = benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-z",
		UserID:           "no-such-user",
		Package:          model.PackageDescriptor{Type: "one-time", Entries: 1},
	})
	require.Error(t, err)
}

func Test_benefitDomain_GrantBenefits_payment_timestamp_metadata(t *testing.T) {
	ctx := testutil.MockContext()
	benefitDomain, _, _, _, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = testutil.SampleDraw(ctx, nil)
	require.NoError(t, err)

	paidAt := time.Now().Add(-2 * time.Hour)
	resp, err := benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-meta",
		UserID:           user.ID,
		Package:          model.PackageDescriptor{Type: "one-time", Entries: 3},
		Metadata:         map[string]any{"timestamp": paidAt.Format(time.RFC3339)},
	})
	require.NoError(t, err)
	require.True(t, resp.Granted)

	purchaseRepo := repository.NewPurchaseRepository()
	purchase, err := purchaseRepo.GetByPaymentReference(ctx, "pay-meta")
	require.NoError(t, err)
	require.WithinDuration(t, paidAt, purchase.PurchasedAt, time.Second)
}

func Test_benefitDomain_GrantBenefits_enqueues_discount(t *testing.T) {
	ctx := testutil.MockContext()
	benefitDomain, _, _, discountQueueDomain, _ := newTestDomains()

	user, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	resp, err := benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-discount",
		UserID:           user.ID,
		Package: model.PackageDescriptor{
			Type:          "one-time",
			ID:            "discount-pack",
			DiscountHours: 48,
		},
	})
	require.NoError(t, err)
	require.True(t, resp.Granted)

	queue, err := discountQueueDomain.GetMyQueue(ctx, &model.GetMyDiscountQueueRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)
	require.Equal(t, string(entity.DiscountActive), queue.Items[0].Status)
	require.Equal(t, 48, queue.Items[0].DiscountHours)
}
