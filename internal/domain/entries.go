package domain

import (
	"context"
	"encoding/json"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/errorx"
	"github.com/prizeloop/backend/pkg/pubsub"
	"github.com/prizeloop/backend/pkg/xcontext"
)

type EntryDomain interface {
	// AddEntries upserts the user's aggregate row of the draw and
	// re-derives the draw's denormalized total from the rows. It serves
	// draws without a capacity reservation; reserved entries land through
	// AddReservedEntries.
	AddEntries(ctx context.Context, drawID, userID string, source entity.EntrySource, count int) error

	// AddReservedEntries records the aggregate row of entries whose count
	// was already reserved on the draw's denormalized total. It never
	// recomputes the total: a recompute from the aggregate rows would
	// erase reservations concurrent payments hold but have not written
	// their rows for yet.
	AddReservedEntries(ctx context.Context, drawID, userID string, source entity.EntrySource, count int) error

	GetMyEntries(ctx context.Context, req *model.GetMyEntriesRequest) (*model.GetMyEntriesResponse, error)
}

type entryDomain struct {
	drawRepo      repository.DrawRepository
	drawEntryRepo repository.DrawEntryRepository
	publisher     pubsub.Publisher
}

func NewEntryDomain(
	drawRepo repository.DrawRepository,
	drawEntryRepo repository.DrawEntryRepository,
	publisher pubsub.Publisher,
) *entryDomain {
	return &entryDomain{
		drawRepo:      drawRepo,
		drawEntryRepo: drawEntryRepo,
		publisher:     publisher,
	}
}

func (d *entryDomain) AddEntries(
	ctx context.Context, drawID, userID string, source entity.EntrySource, count int,
) error {
	if count <= 0 {
		return errorx.New(errorx.BadRequest, "Number of entries must be a positive number")
	}

	if err := d.drawEntryRepo.Upsert(ctx, drawID, userID, source, count); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert the aggregate row: %v", err)
		return errorx.Unknown
	}

	if err := d.drawRepo.RecomputeTotalEntries(ctx, drawID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot recompute the draw total: %v", err)
		return errorx.Unknown
	}

	d.notifyEntriesAdded(ctx, drawID, userID, source, count)
	return nil
}

func (d *entryDomain) AddReservedEntries(
	ctx context.Context, drawID, userID string, source entity.EntrySource, count int,
) error {
	if count <= 0 {
		return errorx.New(errorx.BadRequest, "Number of entries must be a positive number")
	}

	if err := d.drawEntryRepo.Upsert(ctx, drawID, userID, source, count); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert the aggregate row: %v", err)
		return errorx.Unknown
	}

	d.notifyEntriesAdded(ctx, drawID, userID, source, count)
	return nil
}

func (d *entryDomain) GetMyEntries(
	ctx context.Context, req *model.GetMyEntriesRequest,
) (*model.GetMyEntriesResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an user id")
	}

	entries, err := d.drawEntryRepo.GetListByUser(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get entries of user: %v", err)
		return nil, errorx.Unknown
	}

	clientEntries := []model.DrawEntry{}
	for i := range entries {
		clientEntries = append(clientEntries, model.ConvertDrawEntry(&entries[i]))
	}

	return &model.GetMyEntriesResponse{Entries: clientEntries}, nil
}

func (d *entryDomain) notifyEntriesAdded(
	ctx context.Context, drawID, userID string, source entity.EntrySource, count int,
) {
	if d.publisher == nil {
		return
	}

	b, err := json.Marshal(model.EntriesAddedEvent{
		EventID: xcontext.SnowFlake(ctx).Generate().Int64(),
		DrawID:  drawID,
		UserID:  userID,
		Source:  string(source),
		Count:   count,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal the entries-added event: %v", err)
		return
	}

	err = d.publisher.Publish(ctx, model.EntriesAddedTopic, &pubsub.Pack{Key: []byte(userID), Msg: b})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish the entries-added event: %v", err)
	}
}
