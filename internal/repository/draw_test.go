package repository_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prizeloop/backend/internal/entity"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func Test_drawRepository_UpdateStatus_is_guarded(t *testing.T) {
	ctx := testutil.MockContext()
	drawRepo := repository.NewDrawRepository()

	draw, err := testutil.SampleDraw(ctx, nil)
	require.NoError(t, err)

	now := time.Now()
	changed, err := drawRepo.UpdateStatus(ctx, draw.ID, entity.DrawActive, entity.DrawFrozen, true, now)
	require.NoError(t, err)
	require.True(t, changed)

	// The same transition applied twice is a no-op: the guard no longer
	// matches.
	changed, err = drawRepo.UpdateStatus(ctx, draw.ID, entity.DrawActive, entity.DrawFrozen, true, now)
	require.NoError(t, err)
	require.False(t, changed)

	got, err := drawRepo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DrawFrozen, got.Status)
	require.True(t, got.ConfigurationLocked)
	require.True(t, got.LockedAt.Valid)
}

func Test_drawRepository_CheckAndAddEntries_capacity(t *testing.T) {
	ctx := testutil.MockContext()
	drawRepo := repository.NewDrawRepository()

	mini, err := testutil.SampleDraw(ctx, &entity.Draw{
		Type:           entity.DrawMini,
		MinimumEntries: 5,
	})
	require.NoError(t, err)

	require.NoError(t, drawRepo.CheckAndAddEntries(ctx, mini.ID, 3))

	// Exceeding the capacity rejects the whole increment.
	err = drawRepo.CheckAndAddEntries(ctx, mini.ID, 3)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, drawRepo.CheckAndAddEntries(ctx, mini.ID, 2))

	completed, err := drawRepo.CompleteIfFull(ctx, mini.ID, time.Now())
	require.NoError(t, err)
	require.True(t, completed)

	// A full draw accepts nothing more.
	err = drawRepo.CheckAndAddEntries(ctx, mini.ID, 1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_drawRepository_GetCurrentMajor_and_next_queued(t *testing.T) {
	ctx := testutil.MockContext()
	drawRepo := repository.NewDrawRepository()

	now := time.Now()
	_, err := drawRepo.GetCurrentMajor(ctx)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	near, err := testutil.SampleDraw(ctx, &entity.Draw{DrawDate: now.Add(24 * time.Hour)})
	require.NoError(t, err)

	_, err = testutil.SampleDraw(ctx, &entity.Draw{DrawDate: now.Add(72 * time.Hour)})
	require.NoError(t, err)

	current, err := drawRepo.GetCurrentMajor(ctx)
	require.NoError(t, err)
	require.Equal(t, near.ID, current.ID)

	queued, err := testutil.SampleDraw(ctx, &entity.Draw{
		Status:         entity.DrawQueued,
		ActivationDate: nullTime(now.Add(30 * time.Hour)),
		DrawDate:       now.Add(96 * time.Hour),
	})
	require.NoError(t, err)

	next, err := drawRepo.GetNextQueuedMajor(ctx, near.DrawDate)
	require.NoError(t, err)
	require.Equal(t, queued.ID, next.ID)

	_, err = drawRepo.GetNextQueuedMajor(ctx, now.Add(200*time.Hour))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
