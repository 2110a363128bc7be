package main

import (
	"github.com/prizeloop/backend/internal/domain/cron"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(ct *cli.Context) error {
	s.loadConfig(ct)
	s.loadLogger()
	s.loadDatabase()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()

	manager := cron.NewCronJobManager()
	manager.Register(cron.NewReconcileDrawsCronJob(s.ctx, s.drawStateDomain))
	manager.Register(cron.NewSelectWinnersCronJob(s.ctx, s.drawRepo, s.drawStateDomain))
	manager.Start(s.ctx)

	return nil
}
