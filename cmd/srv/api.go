package main

import (
	"fmt"
	"net/http"

	"github.com/prizeloop/backend/internal/middleware"
	"github.com/prizeloop/backend/pkg/router"
	"github.com/prizeloop/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(ct *cli.Context) error {
	s.loadConfig(ct)
	s.loadLogger()
	s.loadDatabase()
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx).ApiServer
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler: s.router.Handler(),
	}

	s.logger.Infof("Starting api server on port %s", cfg.Port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	s.logger.Infof("Api server stopped")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(xcontext.DB(s.ctx), xcontext.Configs(s.ctx), s.logger)
	s.router.AddCloser(middleware.Logger())
	s.router.Before(middleware.Identity())

	router.POST(s.router, "/confirmPayment", s.benefitDomain.GrantBenefits)
	router.POST(s.router, "/cancelDiscount", s.discountQueueDomain.Cancel)
	router.POST(s.router, "/verifyEmail", s.referralDomain.VerifyEmail)

	router.GET(s.router, "/getDraw", s.drawStateDomain.GetDraw)
	router.GET(s.router, "/getMyEntries", s.entryDomain.GetMyEntries)
	router.GET(s.router, "/getMyDiscountQueue", s.discountQueueDomain.GetMyQueue)
}
