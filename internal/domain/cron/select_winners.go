package cron

import (
	"context"
	"time"

	"github.com/prizeloop/backend/internal/domain"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/pkg/xcontext"
)

// SelectWinnersCronJob finds completed draws that still miss a winner and
// runs the selection for each. The winner row is write-once, so a job racing
// another instance loses the insert and moves on.
type SelectWinnersCronJob struct {
	drawRepo  repository.DrawRepository
	drawState domain.DrawStateDomain
	interval  time.Duration
}

func NewSelectWinnersCronJob(
	ctx context.Context,
	drawRepo repository.DrawRepository,
	drawState domain.DrawStateDomain,
) *SelectWinnersCronJob {
	return &SelectWinnersCronJob{
		drawRepo:  drawRepo,
		drawState: drawState,
		interval:  xcontext.Configs(ctx).Cron.WinnerSelectInterval,
	}
}

func (job *SelectWinnersCronJob) Do(ctx context.Context) {
	draws, err := job.drawRepo.GetCompletedWithoutWinner(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list completed draws without winner: %v", err)
		return
	}

	for i := range draws {
		winner, err := job.drawState.SelectWinner(ctx, draws[i].ID)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Cannot select winner of draw %s: %v", draws[i].ID, err)
			continue
		}

		xcontext.Logger(ctx).Infof("Selected winner %s of draw %s", winner.UserID, draws[i].ID)
	}
}

func (job *SelectWinnersCronJob) RunNow() bool {
	return false
}

func (job *SelectWinnersCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
