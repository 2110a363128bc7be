package main

import (
	"context"
	"net/http"

	"github.com/prizeloop/backend/config"
	"github.com/prizeloop/backend/internal/domain"
	"github.com/prizeloop/backend/internal/repository"
	"github.com/prizeloop/backend/migration"
	"github.com/prizeloop/backend/pkg/kafka"
	"github.com/prizeloop/backend/pkg/logger"
	"github.com/prizeloop/backend/pkg/pubsub"
	"github.com/prizeloop/backend/pkg/router"
	"github.com/prizeloop/backend/pkg/xcontext"
	"github.com/prizeloop/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	logger logger.Logger

	userRepo         repository.UserRepository
	paymentEventRepo repository.PaymentEventRepository
	purchaseRepo     repository.PurchaseRepository
	drawRepo         repository.DrawRepository
	drawEntryRepo    repository.DrawEntryRepository
	winnerRepo       repository.WinnerRepository
	discountRepo     repository.PartnerDiscountRepository
	referralRepo     repository.ReferralRepository

	entryDomain         domain.EntryDomain
	drawStateDomain     domain.DrawStateDomain
	discountQueueDomain domain.DiscountQueueDomain
	referralDomain      domain.ReferralDomain
	benefitDomain       domain.BenefitDomain

	publisher   pubsub.Publisher
	redisClient xredis.Client

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig(ct *cli.Context) {
	cfg, err := config.Load(ct.String("config"))
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
}

func (s *srv) loadLogger() {
	level := logger.INFO
	if xcontext.Configs(s.ctx).Env == "local" {
		level = logger.DEBUG
	}

	s.logger = logger.NewLogger(level)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) loadDatabase() {
	database := xcontext.Configs(s.ctx).Database
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                      database.ConnectionString(),
		DefaultStringSize:        256,
		DisableDatetimePrecision: true,
		DontSupportRenameIndex:   true,
		DontSupportRenameColumn:  true,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
}

func (s *srv) migrateDB() {
	if err := migration.AutoMigrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		// The redis fast path is optional, the ledger stays authoritative.
		s.logger.Warnf("Cannot connect to redis, continue without it: %v", err)
		return
	}

	s.redisClient = client
}

func (s *srv) loadPublisher() {
	publisher, err := kafka.NewPublisher("prizeloop-api",
		[]string{xcontext.Configs(s.ctx).Kafka.Addr})
	if err != nil {
		s.logger.Warnf("Cannot connect to kafka, continue without notifications: %v", err)
		return
	}

	s.publisher = publisher
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.paymentEventRepo = repository.NewPaymentEventRepository()
	s.purchaseRepo = repository.NewPurchaseRepository()
	s.drawRepo = repository.NewDrawRepository()
	s.drawEntryRepo = repository.NewDrawEntryRepository()
	s.winnerRepo = repository.NewWinnerRepository()
	s.discountRepo = repository.NewPartnerDiscountRepository()
	s.referralRepo = repository.NewReferralRepository()
}

func (s *srv) loadDomains() {
	s.entryDomain = domain.NewEntryDomain(s.drawRepo, s.drawEntryRepo, s.publisher)
	s.drawStateDomain = domain.NewDrawStateDomain(
		s.drawRepo, s.drawEntryRepo, s.winnerRepo, s.entryDomain, s.publisher)
	s.discountQueueDomain = domain.NewDiscountQueueDomain(s.discountRepo, s.paymentEventRepo)
	s.referralDomain = domain.NewReferralDomain(
		s.referralRepo, s.userRepo, s.drawStateDomain, s.publisher)
	s.benefitDomain = domain.NewBenefitDomain(
		s.paymentEventRepo, s.purchaseRepo, s.userRepo,
		s.drawStateDomain, s.discountQueueDomain, s.referralDomain,
		s.redisClient, s.publisher)
}
