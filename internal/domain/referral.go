package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/errorx"
	"github.com/prizeloop/backend/pkg/pubsub"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ReferralDomain interface {
	// RecordPurchase registers a pending referral for an invitee's first
	// purchase. When the invitee's email is already verified, the referral
	// converts immediately.
	RecordPurchase(ctx context.Context, inviteeID, referralCode string) error

	// VerifyEmail marks the user's email verified and converts every
	// pending referral the user holds as an invitee.
	VerifyEmail(ctx context.Context, req *model.VerifyEmailRequest) (*model.VerifyEmailResponse, error)
}

type referralDomain struct {
	referralRepo repository.ReferralRepository
	userRepo     repository.UserRepository
	drawState    DrawStateDomain
	publisher    pubsub.Publisher
}

func NewReferralDomain(
	referralRepo repository.ReferralRepository,
	userRepo repository.UserRepository,
	drawState DrawStateDomain,
	publisher pubsub.Publisher,
) *referralDomain {
	return &referralDomain{
		referralRepo: referralRepo,
		userRepo:     userRepo,
		drawState:    drawState,
		publisher:    publisher,
	}
}

func (d *referralDomain) RecordPurchase(ctx context.Context, inviteeID, referralCode string) error {
	referrer, err := d.userRepo.GetByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found referral code")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user by referral code: %v", err)
		return errorx.Unknown
	}

	if referrer.ID == inviteeID {
		return errorx.New(errorx.PermissionDenied, "Cannot use your own referral code")
	}

	invitee, err := d.userRepo.GetByID(ctx, inviteeID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get invitee: %v", err)
		return errorx.Unknown
	}

	// One referral per invitee, ever. Later purchases through any code
	// change nothing.
	count, err := d.referralRepo.CountByInvitee(ctx, inviteeID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count referrals of invitee: %v", err)
		return errorx.Unknown
	}

	if count > 0 {
		return errorx.New(errorx.AlreadyExists, "User was already referred")
	}

	event := &entity.ReferralEvent{
		Base:          entity.Base{ID: uuid.NewString()},
		ReferrerID:    referrer.ID,
		ReferralCode:  referralCode,
		InviteeUserID: inviteeID,
		Status:        entity.ReferralPending,
	}

	inserted, err := d.referralRepo.Create(ctx, event)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create referral event: %v", err)
		return errorx.Unknown
	}

	if !inserted {
		return errorx.New(errorx.AlreadyExists, "Referral was already recorded")
	}

	if invitee.IsEmailVerified {
		return d.convert(ctx, event)
	}

	return nil
}

func (d *referralDomain) VerifyEmail(
	ctx context.Context, req *model.VerifyEmailRequest,
) (*model.VerifyEmailResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an user id")
	}

	if _, err := d.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.userRepo.MarkEmailVerified(ctx, userID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark email verified: %v", err)
		return nil, errorx.Unknown
	}

	pending, err := d.referralRepo.GetPendingByInvitee(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending referrals: %v", err)
		return nil, errorx.Unknown
	}

	converted := 0
	for i := range pending {
		if err := d.convert(ctx, &pending[i]); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot convert referral %s: %v", pending[i].ID, err)
			continue
		}

		converted++
	}

	return &model.VerifyEmailResponse{ConvertedReferrals: converted}, nil
}

// convert flips the event to converted and grants the bonus to both
// parties. The guarded status update makes the grant exactly-once even when
// verification and first purchase race.
func (d *referralDomain) convert(ctx context.Context, event *entity.ReferralEvent) error {
	bonus := xcontext.Configs(ctx).Referral.BonusEntries

	func() {
		ctx = xcontext.WithDBTransaction(ctx)
		defer xcontext.WithRollbackDBTransaction(ctx)

		if err := d.referralRepo.Convert(ctx, event.ID, time.Now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Debugf("Referral %s already converted", event.ID)
			} else {
				xcontext.Logger(ctx).Errorf("Cannot convert referral event: %v", err)
			}

			bonus = 0
			return
		}

		for _, userID := range []string{event.ReferrerID, event.InviteeUserID} {
			if err := d.userRepo.IncreaseBenefits(ctx, userID, uint64(bonus), 0); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot grant referral bonus: %v", err)
				bonus = 0
				return
			}
		}

		err := d.userRepo.IncreaseReferralConversions(ctx, event.ReferrerID, 1)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot count the conversion: %v", err)
			bonus = 0
			return
		}

		xcontext.WithCommitDBTransaction(ctx)
	}()

	if bonus <= 0 {
		return nil
	}

	// Routing failures never undo the conversion. The accumulated counters
	// above already hold the bonus, a missing aggregate row only means the
	// entries land in no draw.
	now := time.Now()
	for _, userID := range []string{event.ReferrerID, event.InviteeUserID} {
		err := d.drawState.RouteEntries(ctx, userID, entity.EntrySourceReferral, "", bonus, now)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot route referral bonus of user %s: %v", userID, err)
		}
	}

	d.notifyConverted(ctx, event, bonus)
	return nil
}

func (d *referralDomain) notifyConverted(
	ctx context.Context, event *entity.ReferralEvent, bonus int,
) {
	if d.publisher == nil {
		return
	}

	b, err := json.Marshal(model.ReferralConvertedEvent{
		EventID:      xcontext.SnowFlake(ctx).Generate().Int64(),
		ReferrerID:   event.ReferrerID,
		InviteeID:    event.InviteeUserID,
		BonusEntries: bonus,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal the referral-converted event: %v", err)
		return
	}

	err = d.publisher.Publish(ctx, model.ReferralConvertedTopic, &pubsub.Pack{Key: []byte(event.ReferrerID), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish the referral-converted event: %v", err)
	}
}
