package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/dateutil"
	"github.com/prizeloop/backend/pkg/enum"
	"github.com/prizeloop/backend/pkg/errorx"
	"github.com/prizeloop/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type DiscountQueueDomain interface {
	// Enqueue appends a discount item at the tail of the user's queue and
	// processes the queue, which may activate the item immediately.
	Enqueue(ctx context.Context, userID string, pkg model.PackageDescriptor, paymentRef string, purchasedAt time.Time) error

	// Process advances the user's queue: expired items are retired, at
	// most one item is activated, positions are re-packed densely. It
	// reports whether anything changed.
	Process(ctx context.Context, userID string) (bool, error)

	// Cancel retires the item bought under the payment reference, for
	// refunds. It reports whether the item was found and cancelled.
	Cancel(ctx context.Context, req *model.CancelDiscountRequest) (*model.CancelDiscountResponse, error)

	GetMyQueue(ctx context.Context, req *model.GetMyDiscountQueueRequest) (*model.GetMyDiscountQueueResponse, error)
}

type discountQueueDomain struct {
	discountRepo     repository.PartnerDiscountRepository
	paymentEventRepo repository.PaymentEventRepository
}

func NewDiscountQueueDomain(
	discountRepo repository.PartnerDiscountRepository,
	paymentEventRepo repository.PaymentEventRepository,
) *discountQueueDomain {
	return &discountQueueDomain{
		discountRepo:     discountRepo,
		paymentEventRepo: paymentEventRepo,
	}
}

func (d *discountQueueDomain) Enqueue(
	ctx context.Context, userID string, pkg model.PackageDescriptor,
	paymentRef string, purchasedAt time.Time,
) error {
	if pkg.DiscountHours <= 0 {
		return errorx.New(errorx.BadRequest, "Package grants no discount access")
	}

	pkgType, err := enumPackageType(pkg.Type)
	if err != nil {
		return err
	}

	queue, err := d.discountRepo.GetQueueByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get discount queue of user: %v", err)
		return errorx.Unknown
	}

	item := &entity.PartnerDiscountItem{
		Base:             entity.Base{ID: uuid.NewString()},
		UserID:           userID,
		PackageID:        pkg.ID,
		PackageType:      pkgType,
		PaymentReference: paymentRef,
		DiscountHours:    pkg.DiscountHours,
		IsSubscription:   pkgType == entity.PackageSubscription,
		Status:           entity.DiscountQueued,
		QueuePosition:    len(queue),
		PurchaseDate:     purchasedAt,
		ExpiryDate: dateutil.AddMonths(
			purchasedAt, xcontext.Configs(ctx).Discount.ExpiryMonths),
	}

	if err := d.discountRepo.Create(ctx, item); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create discount item: %v", err)
		return errorx.Unknown
	}

	if _, err := d.Process(ctx, userID); err != nil {
		return err
	}

	return nil
}

func (d *discountQueueDomain) Process(ctx context.Context, userID string) (bool, error) {
	queue, err := d.discountRepo.GetQueueByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get discount queue of user: %v", err)
		return false, errorx.Unknown
	}

	now := time.Now()
	changed := false

	remaining := queue[:0]
	for i := range queue {
		item := &queue[i]
		if d.isExpired(item, now) {
			if err := d.retire(ctx, item, entity.DiscountExpired); err != nil {
				return changed, err
			}

			changed = true
			continue
		}

		remaining = append(remaining, *item)
	}

	activated, err := d.advance(ctx, remaining, now)
	if err != nil {
		return changed, err
	}

	repacked, err := d.repack(ctx, remaining)
	if err != nil {
		return changed, err
	}

	if err := d.pruneExpired(ctx, userID); err != nil {
		return changed, err
	}

	return changed || activated || repacked, nil
}

// isExpired covers both ends of an item's life: a queued item that waited
// past its expiry date, and an active item whose access window closed.
func (d *discountQueueDomain) isExpired(item *entity.PartnerDiscountItem, now time.Time) bool {
	if item.Status == entity.DiscountQueued {
		return now.After(item.ExpiryDate)
	}

	return item.Status == entity.DiscountActive &&
		item.EndDate.Valid && now.After(item.EndDate.Time)
}

// advance fills the single active slot. A queued subscription preempts an
// active one-off item: the one-off goes back to the head of the queue with
// its full duration intact.
func (d *discountQueueDomain) advance(
	ctx context.Context, queue []entity.PartnerDiscountItem, now time.Time,
) (bool, error) {
	var active, pendingSub, nextQueued *entity.PartnerDiscountItem
	for i := range queue {
		item := &queue[i]
		switch {
		case item.Status == entity.DiscountActive:
			active = item
		case item.IsSubscription && pendingSub == nil:
			pendingSub = item
		case nextQueued == nil:
			nextQueued = item
		}
	}

	if pendingSub != nil {
		if active != nil && !active.IsSubscription {
			if err := d.demote(ctx, active); err != nil {
				return false, err
			}

			active = nil
		}

		if active == nil {
			return true, d.activate(ctx, pendingSub, now)
		}
	}

	if active == nil && nextQueued != nil {
		return true, d.activate(ctx, nextQueued, now)
	}

	return false, nil
}

func (d *discountQueueDomain) activate(
	ctx context.Context, item *entity.PartnerDiscountItem, now time.Time,
) error {
	end := now.Add(time.Duration(item.DiscountHours) * time.Hour)
	err := d.discountRepo.Update(ctx, item.ID, map[string]any{
		"status":     entity.DiscountActive,
		"start_date": now,
		"end_date":   end,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot activate discount item: %v", err)
		return errorx.Unknown
	}

	item.Status = entity.DiscountActive
	item.StartDate = sql.NullTime{Time: now, Valid: true}
	item.EndDate = sql.NullTime{Time: end, Valid: true}
	return nil
}

// demote sends a preempted item back to the queue. The dates are cleared so
// the item restarts with its full discount window when it activates again.
func (d *discountQueueDomain) demote(ctx context.Context, item *entity.PartnerDiscountItem) error {
	err := d.discountRepo.Update(ctx, item.ID, map[string]any{
		"status":     entity.DiscountQueued,
		"start_date": nil,
		"end_date":   nil,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot demote discount item: %v", err)
		return errorx.Unknown
	}

	item.Status = entity.DiscountQueued
	item.StartDate = sql.NullTime{}
	item.EndDate = sql.NullTime{}
	return nil
}

func (d *discountQueueDomain) retire(
	ctx context.Context, item *entity.PartnerDiscountItem, status entity.DiscountStatus,
) error {
	values := map[string]any{"status": status}
	if item.Status == entity.DiscountActive && !item.EndDate.Valid {
		values["end_date"] = time.Now()
	}

	if err := d.discountRepo.Update(ctx, item.ID, values); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot retire discount item: %v", err)
		return errorx.Unknown
	}

	item.Status = status
	return nil
}

// repack assigns dense positions: the active item holds position zero, the
// rest follow in purchase order.
func (d *discountQueueDomain) repack(
	ctx context.Context, queue []entity.PartnerDiscountItem,
) (bool, error) {
	slices.SortStableFunc(queue, func(a, b entity.PartnerDiscountItem) bool {
		if (a.Status == entity.DiscountActive) != (b.Status == entity.DiscountActive) {
			return a.Status == entity.DiscountActive
		}

		return a.PurchaseDate.Before(b.PurchaseDate)
	})

	changed := false
	for i := range queue {
		if queue[i].QueuePosition == i {
			continue
		}

		err := d.discountRepo.Update(ctx, queue[i].ID, map[string]any{"queue_position": i})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot repack discount queue: %v", err)
			return changed, errorx.Unknown
		}

		queue[i].QueuePosition = i
		changed = true
	}

	return changed, nil
}

func (d *discountQueueDomain) pruneExpired(ctx context.Context, userID string) error {
	expired, err := d.discountRepo.GetExpiredByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get expired discount items: %v", err)
		return errorx.Unknown
	}

	keep := xcontext.Configs(ctx).Discount.KeepExpiredHistory
	if len(expired) <= keep {
		return nil
	}

	ids := []string{}
	for _, item := range expired[keep:] {
		ids = append(ids, item.ID)
	}

	if err := d.discountRepo.Delete(ctx, ids); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot prune expired discount items: %v", err)
		return errorx.Unknown
	}

	return nil
}

func (d *discountQueueDomain) Cancel(
	ctx context.Context, req *model.CancelDiscountRequest,
) (*model.CancelDiscountResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	if userID == "" || req.PaymentReference == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an user id and a payment reference")
	}

	item, err := d.discountRepo.GetByPaymentReference(ctx, userID, req.PaymentReference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.CancelDiscountResponse{Found: false}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get discount item by payment reference: %v", err)
		return nil, errorx.Unknown
	}

	if item.Status == entity.DiscountExpired || item.Status == entity.DiscountCancelled {
		return &model.CancelDiscountResponse{Found: true}, nil
	}

	// The refund ledger row makes the cancellation run-once: a retried
	// refund delivery hits the conflict and stops here.
	inserted, err := d.paymentEventRepo.Create(ctx, &entity.PaymentEvent{
		Base:             entity.Base{ID: uuid.NewString()},
		PaymentReference: req.PaymentReference,
		EventKind:        entity.PaymentEventRefund,
		UserID:           userID,
		PackageType:      item.PackageType,
		PackageID:        item.PackageID,
		ProcessedAt:      time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record the refund event: %v", err)
		return nil, errorx.Unknown
	}

	if !inserted {
		return &model.CancelDiscountResponse{Found: true}, nil
	}

	if err := d.retire(ctx, item, entity.DiscountCancelled); err != nil {
		return nil, err
	}

	// Cancelling the active item frees the slot for the next queued one.
	if _, err := d.Process(ctx, userID); err != nil {
		return nil, err
	}

	return &model.CancelDiscountResponse{Found: true}, nil
}

func (d *discountQueueDomain) GetMyQueue(
	ctx context.Context, req *model.GetMyDiscountQueueRequest,
) (*model.GetMyDiscountQueueResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an user id")
	}

	if _, err := d.Process(ctx, userID); err != nil {
		return nil, err
	}

	queue, err := d.discountRepo.GetQueueByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get discount queue of user: %v", err)
		return nil, errorx.Unknown
	}

	items := []model.PartnerDiscountItem{}
	for i := range queue {
		items = append(items, model.ConvertPartnerDiscountItem(&queue[i]))
	}

	return &model.GetMyDiscountQueueResponse{Items: items}, nil
}

func enumPackageType(s string) (entity.PackageType, error) {
	pkgType, err := enum.ToEnum[entity.PackageType](s)
	if err != nil {
		return "", errorx.New(errorx.BadRequest, "Invalid package type %s", s)
	}

	return pkgType, nil
}
