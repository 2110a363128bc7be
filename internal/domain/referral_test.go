package domain

import (
	"testing"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_referralDomain_pending_until_email_verified(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, _, referralDomain := newTestDomains()

	referrer, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	invitee, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	draw, err := testutil.SampleDraw(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, referralDomain.RecordPurchase(ctx, invitee.ID, referrer.ReferralCode))

	// Unverified invitee: the event stays pending and no bonus moves.
	userRepo := repository.NewUserRepository()
	got, err := userRepo.GetByID(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.AccumulatedEntries)
	require.Equal(t, 0, got.ReferralConversions)

	resp, err := referralDomain.VerifyEmail(ctx, &model.VerifyEmailRequest{UserID: invitee.ID})
	require.NoError(t, err)
	require.Equal(t, 1, resp.ConvertedReferrals)

	// Both parties got the bonus entries (5 in the test configs), routed
	// into the active draw.
	got, err = userRepo.GetByID(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(5), got.AccumulatedEntries)
	require.Equal(t, 1, got.ReferralConversions)

	gotInvitee, err := userRepo.GetByID(ctx, invitee.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(5), gotInvitee.AccumulatedEntries)
	require.True(t, gotInvitee.IsEmailVerified)

	drawEntryRepo := repository.NewDrawEntryRepository()
	entry, err := drawEntryRepo.GetByDrawAndUser(ctx, draw.ID, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, 5, entry.ReferralEntries)

	// Verifying again converts nothing more.
	resp, err = referralDomain.VerifyEmail(ctx, &model.VerifyEmailRequest{UserID: invitee.ID})
	require.NoError(t, err)
	require.Equal(t, 0, resp.ConvertedReferrals)

	got, err = userRepo.GetByID(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(5), got.AccumulatedEntries)
}

func Test_referralDomain_converts_immediately_when_verified(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, _, referralDomain := newTestDomains()

	referrer, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	invitee, err := testutil.SampleUser(ctx, &entity.User{IsEmailVerified: true})
	require.NoError(t, err)

	_, err = testutil.SampleDraw(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, referralDomain.RecordPurchase(ctx, invitee.ID, referrer.ReferralCode))

	userRepo := repository.NewUserRepository()
	got, err := userRepo.GetByID(ctx, referrer.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(5), got.AccumulatedEntries)
	require.Equal(t, 1, got.ReferralConversions)
}

func Test_referralDomain_rejections(t *testing.T) {
	ctx := testutil.MockContext()
	_, _, _, _, referralDomain := newTestDomains()

	referrer, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	other, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	invitee, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	// Unknown code.
	require.Error(t, referralDomain.RecordPurchase(ctx, invitee.ID, "no-such-code"))

	// Own code.
	require.Error(t, referralDomain.RecordPurchase(ctx, referrer.ID, referrer.ReferralCode))

	// A second referral of the same invitee, through any code.
	require.NoError(t, referralDomain.RecordPurchase(ctx, invitee.ID, referrer.ReferralCode))
	require.Error(t, referralDomain.RecordPurchase(ctx, invitee.ID, other.ReferralCode))
	require.Error(t, referralDomain.RecordPurchase(ctx, invitee.ID, referrer.ReferralCode))
}

func Test_benefitDomain_referral_requires_first_purchase(t *testing.T) {
	ctx := testutil.MockContext()
	benefitDomain, _, _, _, _ := newTestDomains()

	referrer, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)
	invitee, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = testutil.SampleDraw(ctx, nil)
	require.NoError(t, err)

	// First purchase with a code records the referral.
	_, err = benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-first",
		UserID:           invitee.ID,
		Package:          model.PackageDescriptor{Type: "one-time", Entries: 1},
		ReferralCode:     referrer.ReferralCode,
	})
	require.NoError(t, err)

	referralRepo := repository.NewReferralRepository()
	count, err := referralRepo.CountByInvitee(ctx, invitee.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	// A later purchase with a code changes nothing: the invitee already
	// has a purchase.
	latecomer, err := testutil.SampleUser(ctx, nil)
	require.NoError(t, err)

	_, err = benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-late-1",
		UserID:           latecomer.ID,
		Package:          model.PackageDescriptor{Type: "one-time", Entries: 1},
	})
	require.NoError(t, err)

	_, err = benefitDomain.GrantBenefits(ctx, &model.GrantBenefitsRequest{
		PaymentReference: "pay-late-2",
		UserID:           latecomer.ID,
		Package:          model.PackageDescriptor{Type: "one-time", Entries: 1},
		ReferralCode:     referrer.ReferralCode,
	})
	require.NoError(t, err)

	count, err = referralRepo.CountByInvitee(ctx, latecomer.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}
