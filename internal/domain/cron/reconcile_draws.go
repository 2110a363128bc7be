package cron

import (
	"context"
	"time"

	"github.com/prizeloop/backend/internal/domain"
	"github.com/prizeloop/backend/pkg/xcontext"
)

// ReconcileDrawsCronJob sweeps every non-terminal draw and applies the
// transitions its dates imply. Draws already transition lazily when they are
// read; the sweep keeps untouched draws from going stale.
type ReconcileDrawsCronJob struct {
	drawState domain.DrawStateDomain
	interval  time.Duration
}

func NewReconcileDrawsCronJob(ctx context.Context, drawState domain.DrawStateDomain) *ReconcileDrawsCronJob {
	return &ReconcileDrawsCronJob{
		drawState: drawState,
		interval:  xcontext.Configs(ctx).Cron.DrawReconcileInterval,
	}
}

func (job *ReconcileDrawsCronJob) Do(ctx context.Context) {
	if err := job.drawState.ReconcileAll(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reconcile draws: %v", err)
	}
}

func (job *ReconcileDrawsCronJob) RunNow() bool {
	return true
}

func (job *ReconcileDrawsCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
