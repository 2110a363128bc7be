package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fatih/structs"
	"github.com/google/uuid"
	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/crypto"
	"github.com/prizeloop/backend/pkg/errorx"
	"github.com/prizeloop/backend/pkg/pubsub"
	"github.com/prizeloop/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type DrawStateDomain interface {
	// Reconcile re-derives the draw status from its dates and persists the
	// transition if it changed. It returns the draw with the up-to-date
	// status.
	Reconcile(ctx context.Context, drawID string) (*entity.Draw, error)

	// ReconcileAll sweeps every non-terminal draw. Draws are also
	// reconciled lazily on read, the sweep only bounds the staleness.
	ReconcileAll(ctx context.Context) error

	// RouteEntries credits entries to the draw the payment is eligible
	// for: the named mini draw, the current active major draw, or the next
	// queued major draw when entries are frozen.
	RouteEntries(ctx context.Context, userID string, source entity.EntrySource, miniDrawID string, count int, paidAt time.Time) error

	// SelectWinner spins a weighted random selection over the aggregate
	// rows of a completed draw and records the winner exactly once.
	SelectWinner(ctx context.Context, drawID string) (*entity.Winner, error)

	GetDraw(ctx context.Context, req *model.GetDrawRequest) (*model.GetDrawResponse, error)
}

type drawStateDomain struct {
	drawRepo      repository.DrawRepository
	drawEntryRepo repository.DrawEntryRepository
	winnerRepo    repository.WinnerRepository
	entryDomain   EntryDomain
	publisher     pubsub.Publisher
}

func NewDrawStateDomain(
	drawRepo repository.DrawRepository,
	drawEntryRepo repository.DrawEntryRepository,
	winnerRepo repository.WinnerRepository,
	entryDomain EntryDomain,
	publisher pubsub.Publisher,
) *drawStateDomain {
	return &drawStateDomain{
		drawRepo:      drawRepo,
		drawEntryRepo: drawEntryRepo,
		winnerRepo:    winnerRepo,
		entryDomain:   entryDomain,
		publisher:     publisher,
	}
}

// NextDrawStatus derives the status the draw should hold at the given time.
// It never touches storage, the caller persists the transition. Transitions
// chain in one evaluation: a queued draw whose draw date already passed
// resolves straight to completed.
func NextDrawStatus(draw *entity.Draw, now time.Time) (entity.DrawStatus, bool) {
	status := draw.Status
	if status == entity.DrawCompleted || status == entity.DrawCancelled {
		return status, false
	}

	if status == entity.DrawQueued && draw.ActivationDate.Valid &&
		!now.Before(draw.ActivationDate.Time) {
		status = entity.DrawActive
	}

	if status == entity.DrawActive && draw.FreezeEntriesAt.Valid &&
		!now.Before(draw.FreezeEntriesAt.Time) && now.Before(draw.DrawDate) {
		status = entity.DrawFrozen
	}

	if (status == entity.DrawActive || status == entity.DrawFrozen) &&
		!now.Before(draw.DrawDate) {
		status = entity.DrawCompleted
	}

	return status, status != draw.Status
}

// lockAt reports whether entering the status locks the draw configuration.
func lockAt(status entity.DrawStatus) bool {
	return status == entity.DrawFrozen || status == entity.DrawCompleted
}

func (d *drawStateDomain) Reconcile(ctx context.Context, drawID string) (*entity.Draw, error) {
	draw, err := d.drawRepo.GetByID(ctx, drawID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found draw")
		}

		xcontext.Logger(ctx).Errorf("Cannot get draw: %v", err)
		return nil, errorx.Unknown
	}

	return d.reconcile(ctx, draw, time.Now())
}

func (d *drawStateDomain) reconcile(
	ctx context.Context, draw *entity.Draw, now time.Time,
) (*entity.Draw, error) {
	status, changed := NextDrawStatus(draw, now)
	if !changed {
		return draw, nil
	}

	applied, err := d.drawRepo.UpdateStatus(ctx, draw.ID, draw.Status, status, lockAt(status), now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot transition draw %s: %v", draw.ID, err)
		return nil, errorx.Unknown
	}

	// Another reconciler won the guarded update. Both derive the same
	// status from the same dates, so the local copy is still correct.
	if !applied {
		xcontext.Logger(ctx).Debugf("Draw %s already transitioned to %s", draw.ID, status)
	}

	draw.Status = status
	if lockAt(status) {
		draw.ConfigurationLocked = true
	}

	return draw, nil
}

func (d *drawStateDomain) ReconcileAll(ctx context.Context) error {
	draws, err := d.drawRepo.GetNonTerminal(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list non-terminal draws: %v", err)
		return errorx.Unknown
	}

	now := time.Now()
	for i := range draws {
		if _, err := d.reconcile(ctx, &draws[i], now); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot reconcile draw %s: %v", draws[i].ID, err)
		}
	}

	return nil
}

func (d *drawStateDomain) RouteEntries(
	ctx context.Context, userID string, source entity.EntrySource,
	miniDrawID string, count int, paidAt time.Time,
) error {
	if count <= 0 {
		return nil
	}

	if miniDrawID != "" {
		return d.routeToMiniDraw(ctx, userID, source, miniDrawID, count)
	}

	return d.routeToMajorDraw(ctx, userID, source, count, paidAt)
}

func (d *drawStateDomain) routeToMiniDraw(
	ctx context.Context, userID string, source entity.EntrySource, miniDrawID string, count int,
) error {
	draw, err := d.Reconcile(ctx, miniDrawID)
	if err != nil {
		return err
	}

	if draw.Type != entity.DrawMini {
		return errorx.New(errorx.BadRequest, "Draw %s is not a mini draw", miniDrawID)
	}

	if draw.Status != entity.DrawActive {
		return errorx.New(errorx.DrawClosed, "Mini draw is not open for entries")
	}

	// Guarded capacity reservation. No entries land once the draw filled
	// up, the losing payment keeps its other benefits.
	if err := d.drawRepo.CheckAndAddEntries(ctx, draw.ID, count); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.DrawClosed, "Mini draw has no remaining capacity")
		}

		xcontext.Logger(ctx).Errorf("Cannot reserve mini draw capacity: %v", err)
		return errorx.Unknown
	}

	// The reservation above is the authoritative total of a mini draw.
	// The aggregate row lands without a recompute, which would erase
	// reservations held by concurrent payments.
	if err := d.entryDomain.AddReservedEntries(ctx, draw.ID, userID, source, count); err != nil {
		return err
	}

	completed, err := d.drawRepo.CompleteIfFull(ctx, draw.ID, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot complete full mini draw: %v", err)
		return errorx.Unknown
	}

	if completed {
		xcontext.Logger(ctx).Infof("Mini draw %s reached capacity and completed", draw.ID)
	}

	return nil
}

func (d *drawStateDomain) routeToMajorDraw(
	ctx context.Context, userID string, source entity.EntrySource, count int, paidAt time.Time,
) error {
	current, err := d.drawRepo.GetCurrentMajor(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get current major draw: %v", err)
		return errorx.Unknown
	}

	if current != nil {
		current, err = d.reconcile(ctx, current, time.Now())
		if err != nil {
			return err
		}

		// The payment time decides eligibility, not the processing time. A
		// delivery retried after the freeze still lands where the original
		// payment belonged.
		if current.Status == entity.DrawActive && d.acceptsEntriesAt(current, paidAt) {
			return d.entryDomain.AddEntries(ctx, current.ID, userID, source, count)
		}
	}

	// Entries paid inside the freeze gap or after completion defer to the
	// next scheduled draw.
	after := paidAt
	if current != nil {
		after = current.DrawDate
	}

	next, err := d.drawRepo.GetNextQueuedMajor(ctx, after)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NoEligibleDraw, "No draw is eligible for these entries")
		}

		xcontext.Logger(ctx).Errorf("Cannot get next queued major draw: %v", err)
		return errorx.Unknown
	}

	return d.entryDomain.AddEntries(ctx, next.ID, userID, source, count)
}

func (d *drawStateDomain) acceptsEntriesAt(draw *entity.Draw, paidAt time.Time) bool {
	if draw.FreezeEntriesAt.Valid && !paidAt.Before(draw.FreezeEntriesAt.Time) {
		return false
	}

	return paidAt.Before(draw.DrawDate)
}

type prizeSnapshot struct {
	DrawName         string  `structs:"draw_name"`
	PrizeName        string  `structs:"prize_name"`
	PrizeDescription string  `structs:"prize_description"`
	PrizeValue       float64 `structs:"prize_value"`
}

func (d *drawStateDomain) SelectWinner(ctx context.Context, drawID string) (*entity.Winner, error) {
	draw, err := d.Reconcile(ctx, drawID)
	if err != nil {
		return nil, err
	}

	if draw.Status != entity.DrawCompleted {
		return nil, errorx.New(errorx.Unavailable, "Draw has not completed yet")
	}

	entries, err := d.drawEntryRepo.GetListByDraw(ctx, draw.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list entries of draw: %v", err)
		return nil, errorx.Unknown
	}

	total := 0
	for i := range entries {
		total += entries[i].TotalEntries
	}

	if total == 0 {
		return nil, errorx.New(errorx.Unavailable, "Draw has no entries to select from")
	}

	// Weighted spin: every entry is one ticket, a user holding n entries
	// owns n consecutive tickets.
	ticket := crypto.RandIntn(total)
	selected := &entries[len(entries)-1]
	remaining := ticket
	for i := range entries {
		if remaining < entries[i].TotalEntries {
			selected = &entries[i]
			break
		}

		remaining -= entries[i].TotalEntries
	}

	now := time.Now()
	winner := &entity.Winner{
		Base:        entity.Base{ID: uuid.NewString()},
		DrawID:      draw.ID,
		DrawType:    draw.Type,
		UserID:      selected.UserID,
		EntryNumber: ticket + 1,
		SelectedAt:  now,
		PrizeSnapshot: structs.Map(prizeSnapshot{
			DrawName:         draw.Name,
			PrizeName:        draw.PrizeName,
			PrizeDescription: draw.PrizeDescription,
			PrizeValue:       draw.PrizeValue,
		}),
		FulfillmentStatus: entity.FulfillmentPending,
		Cycle:             draw.Cycle,
	}

	inserted, err := d.winnerRepo.Create(ctx, winner)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create winner of draw %s: %v", draw.ID, err)
		return nil, errorx.Unknown
	}

	if !inserted {
		return nil, errorx.New(errorx.AlreadyExists, "Draw already has a winner")
	}

	d.notifyWinnerSelected(ctx, winner)
	return winner, nil
}

func (d *drawStateDomain) GetDraw(
	ctx context.Context, req *model.GetDrawRequest,
) (*model.GetDrawResponse, error) {
	if req.DrawID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a draw id")
	}

	draw, err := d.Reconcile(ctx, req.DrawID)
	if err != nil {
		return nil, err
	}

	return &model.GetDrawResponse{Draw: model.ConvertDraw(draw)}, nil
}

func (d *drawStateDomain) notifyWinnerSelected(ctx context.Context, winner *entity.Winner) {
	if d.publisher == nil {
		return
	}

	b, err := json.Marshal(model.WinnerSelectedEvent{
		EventID:     xcontext.SnowFlake(ctx).Generate().Int64(),
		DrawID:      winner.DrawID,
		UserID:      winner.UserID,
		EntryNumber: winner.EntryNumber,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal the winner-selected event: %v", err)
		return
	}

	err = d.publisher.Publish(ctx, model.WinnerSelectedTopic, &pubsub.Pack{Key: []byte(winner.DrawID), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish the winner-selected event: %v", err)
	}
}
