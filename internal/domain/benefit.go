package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/math"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/enum"
	"github.com/prizeloop/backend/pkg/errorx"
	"github.com/prizeloop/backend/pkg/pubsub"
	"github.com/prizeloop/backend/pkg/xcontext"
	"github.com/prizeloop/backend/pkg/xredis"
	"github.com/puzpuzpuz/xsync"
	"gorm.io/gorm"
)

type BenefitDomain interface {
	// GrantBenefits is the single entrypoint of a payment confirmation. It
	// records the payment exactly once and fans the granted benefits out
	// to entries, the discount queue, and the referral program.
	GrantBenefits(ctx context.Context, req *model.GrantBenefitsRequest) (*model.GrantBenefitsResponse, error)
}

type benefitDomain struct {
	paymentEventRepo repository.PaymentEventRepository
	purchaseRepo     repository.PurchaseRepository
	userRepo         repository.UserRepository
	drawState        DrawStateDomain
	discountQueue    DiscountQueueDomain
	referral         ReferralDomain
	redisClient      xredis.Client
	publisher        pubsub.Publisher

	// locks serializes deliveries of the same payment within this process.
	// It only reduces retry churn; the ledger constraint is what actually
	// guarantees exactly-once across processes.
	locks *xsync.MapOf[string, *sync.Mutex]
}

func NewBenefitDomain(
	paymentEventRepo repository.PaymentEventRepository,
	purchaseRepo repository.PurchaseRepository,
	userRepo repository.UserRepository,
	drawState DrawStateDomain,
	discountQueue DiscountQueueDomain,
	referral ReferralDomain,
	redisClient xredis.Client,
	publisher pubsub.Publisher,
) *benefitDomain {
	return &benefitDomain{
		paymentEventRepo: paymentEventRepo,
		purchaseRepo:     purchaseRepo,
		userRepo:         userRepo,
		drawState:        drawState,
		discountQueue:    discountQueue,
		referral:         referral,
		redisClient:      redisClient,
		publisher:        publisher,
		locks:            xsync.NewMapOf[*sync.Mutex](),
	}
}

func processedPaymentKey(paymentRef string, kind entity.PaymentEventKind) string {
	return fmt.Sprintf("processed_payment:%s:%s", paymentRef, kind)
}

func entrySourceOf(pkgType entity.PackageType) entity.EntrySource {
	switch pkgType {
	case entity.PackageSubscription:
		return entity.EntrySourceMembership
	case entity.PackageOneTime:
		return entity.EntrySourceOneTime
	case entity.PackageUpsell:
		return entity.EntrySourceUpsell
	case entity.PackageMiniDraw:
		return entity.EntrySourceMiniDraw
	}

	return ""
}

func (d *benefitDomain) GrantBenefits(
	ctx context.Context, req *model.GrantBenefitsRequest,
) (*model.GrantBenefitsResponse, error) {
	if req.PaymentReference == "" || req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a payment reference and an user id")
	}

	pkgType, err := enum.ToEnum[entity.PackageType](req.Package.Type)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid package type %s", req.Package.Type)
	}

	kind := entity.PaymentEventPurchase
	if req.EventKind != "" {
		kind, err = enum.ToEnum[entity.PaymentEventKind](req.EventKind)
		if err != nil || kind == entity.PaymentEventRefund {
			return nil, errorx.New(errorx.BadRequest, "Invalid event kind %s", req.EventKind)
		}
	}

	meta, err := decodePaymentMetadata(req.Metadata)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Cannot decode the payment metadata")
	}

	paidAt := meta.Timestamp
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	miniDrawID := req.Package.MiniDrawID
	if miniDrawID == "" {
		// Upsells inherit the mini draw of the parent purchase through the
		// delivery metadata.
		miniDrawID = meta.MiniDrawID
	}

	if pkgType == entity.PackageMiniDraw && miniDrawID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a mini draw id for a mini-draw package")
	}

	if pkgType != entity.PackageMiniDraw && pkgType != entity.PackageUpsell {
		miniDrawID = ""
	}

	lockKey := req.PaymentReference + "/" + string(kind)
	mutex, _ := d.locks.LoadOrStore(lockKey, &sync.Mutex{})
	mutex.Lock()
	defer func() {
		mutex.Unlock()
		d.locks.Delete(lockKey)
	}()

	cacheKey := processedPaymentKey(req.PaymentReference, kind)
	if d.redisClient != nil {
		if existed, err := d.redisClient.Exist(ctx, cacheKey); err == nil && existed {
			return &model.GrantBenefitsResponse{AlreadyProcessed: true}, nil
		}
	}

	user, err := d.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	// The referral gate looks at the purchase history before this payment
	// lands, so the flag is captured up front.
	hadPurchase := user.HasAnyPurchase

	inserted, err := d.grantCore(ctx, req, pkgType, kind, miniDrawID, paidAt)
	if err != nil {
		return nil, err
	}

	if !inserted {
		d.cacheProcessed(ctx, cacheKey)
		return &model.GrantBenefitsResponse{AlreadyProcessed: true}, nil
	}

	// Everything past the ledger commit is best-effort. The payment is
	// recorded; a failed follow-up is logged and repaired out of band, it
	// never turns the delivery into a retryable failure.
	if req.Package.Entries > 0 {
		err := d.drawState.RouteEntries(
			ctx, req.UserID, entrySourceOf(pkgType), miniDrawID, req.Package.Entries, paidAt)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot route entries of payment %s: %v",
				req.PaymentReference, err)
		}
	}

	if req.Package.DiscountHours > 0 {
		err := d.discountQueue.Enqueue(ctx, req.UserID, req.Package, req.PaymentReference, paidAt)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot enqueue discount of payment %s: %v",
				req.PaymentReference, err)
		}
	}

	if req.ReferralCode != "" && !hadPurchase {
		if err := d.referral.RecordPurchase(ctx, req.UserID, req.ReferralCode); err != nil {
			xcontext.Logger(ctx).Debugf("Referral of payment %s not recorded: %v",
				req.PaymentReference, err)
		}
	}

	d.cacheProcessed(ctx, cacheKey)
	d.notifyPurchaseCompleted(ctx, req)

	return &model.GrantBenefitsResponse{Granted: true}, nil
}

// grantCore runs the transactional write path under a bounded retry loop.
// It reports whether this call inserted the ledger row; false means another
// delivery got there first.
func (d *benefitDomain) grantCore(
	ctx context.Context, req *model.GrantBenefitsRequest,
	pkgType entity.PackageType, kind entity.PaymentEventKind,
	miniDrawID string, paidAt time.Time,
) (bool, error) {
	cfg := xcontext.Configs(ctx).Benefit
	backoff := cfg.RetryBackoff
	maxRetries := math.MaxInt(1, cfg.MaxRetries)

	var inserted bool
	for attempt := 0; ; attempt++ {
		var err error
		inserted, err = d.grantCoreOnce(ctx, req, pkgType, kind, miniDrawID, paidAt)
		if err == nil {
			return inserted, nil
		}

		var benefitErr errorx.Error
		if errors.As(err, &benefitErr) {
			return false, err
		}

		if attempt+1 >= maxRetries {
			xcontext.Logger(ctx).Errorf("Give up payment %s after %d attempts: %v",
				req.PaymentReference, attempt+1, err)
			return false, errorx.New(errorx.RetryExhausted,
				"Cannot record the payment, retry the delivery later")
		}

		xcontext.Logger(ctx).Warnf("Retry payment %s after error: %v", req.PaymentReference, err)
		time.Sleep(backoff)
		backoff *= 2
	}
}

func (d *benefitDomain) grantCoreOnce(
	ctx context.Context, req *model.GrantBenefitsRequest,
	pkgType entity.PackageType, kind entity.PaymentEventKind,
	miniDrawID string, paidAt time.Time,
) (bool, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	inserted, err := d.paymentEventRepo.Create(ctx, &entity.PaymentEvent{
		Base:             entity.Base{ID: uuid.NewString()},
		PaymentReference: req.PaymentReference,
		EventKind:        kind,
		UserID:           req.UserID,
		PackageType:      pkgType,
		PackageID:        req.Package.ID,
		PackageName:      req.Package.Name,
		GrantedEntries:   req.Package.Entries,
		GrantedPoints:    req.Package.Points,
		Price:            req.Package.Price,
		Origin:           req.Origin,
		ProcessedAt:      time.Now(),
	})
	if err != nil {
		return false, err
	}

	if !inserted {
		return false, nil
	}

	err = d.userRepo.IncreaseBenefits(
		ctx, req.UserID, uint64(req.Package.Entries), uint64(req.Package.Points))
	if err != nil {
		return false, err
	}

	purchase := &entity.Purchase{
		Base:             entity.Base{ID: uuid.NewString()},
		UserID:           req.UserID,
		PaymentReference: req.PaymentReference,
		PackageType:      pkgType,
		PackageID:        req.Package.ID,
		PackageName:      req.Package.Name,
		Entries:          req.Package.Entries,
		Points:           req.Package.Points,
		Price:            req.Package.Price,
		DiscountHours:    req.Package.DiscountHours,
		PurchasedAt:      paidAt,
	}
	if miniDrawID != "" {
		purchase.MiniDrawID = sql.NullString{String: miniDrawID, Valid: true}
	}

	if err := d.purchaseRepo.Create(ctx, purchase); err != nil {
		return false, err
	}

	if err := d.userRepo.MarkHasPurchase(ctx, req.UserID); err != nil {
		return false, err
	}

	xcontext.WithCommitDBTransaction(ctx)
	return true, nil
}

func (d *benefitDomain) cacheProcessed(ctx context.Context, key string) {
	if d.redisClient == nil {
		return
	}

	ttl := xcontext.Configs(ctx).Benefit.ProcessedPaymentTTL
	if err := d.redisClient.Set(ctx, key, "1", ttl); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache the processed payment: %v", err)
	}
}

func (d *benefitDomain) notifyPurchaseCompleted(ctx context.Context, req *model.GrantBenefitsRequest) {
	if d.publisher == nil {
		return
	}

	b, err := json.Marshal(model.PurchaseCompletedEvent{
		EventID:          xcontext.SnowFlake(ctx).Generate().Int64(),
		PaymentReference: req.PaymentReference,
		UserID:           req.UserID,
		PackageType:      req.Package.Type,
		PackageID:        req.Package.ID,
		Entries:          req.Package.Entries,
		Points:           req.Package.Points,
		Price:            req.Package.Price,
		ProcessedAt:      time.Now(),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal the purchase-completed event: %v", err)
		return
	}

	err = d.publisher.Publish(ctx, model.PurchaseCompletedTopic, &pubsub.Pack{Key: []byte(req.UserID), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish the purchase-completed event: %v", err)
	}
}

func decodePaymentMetadata(raw map[string]any) (model.PaymentMetadata, error) {
	var meta model.PaymentMetadata
	if raw == nil {
		return meta, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		Result:           &meta,
	})
	if err != nil {
		return meta, err
	}

	if err := decoder.Decode(raw); err != nil {
		return meta, err
	}

	return meta, nil
}
