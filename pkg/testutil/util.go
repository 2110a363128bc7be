package testutil

import (
	"context"
	"time"

	"github.com/prizeloop/backend/config"
	"github.com/prizeloop/backend/migration"
	"github.com/prizeloop/backend/pkg/logger"
	"github.com/prizeloop/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Benefit: config.BenefitConfigs{
			MaxRetries:          3,
			RetryBackoff:        time.Millisecond,
			ProcessedPaymentTTL: time.Minute,
		},
		Referral: config.ReferralConfigs{
			BonusEntries: 5,
		},
		Discount: config.DiscountConfigs{
			ExpiryMonths:       12,
			KeepExpiredHistory: 3,
		},
		Cron: config.CronConfigs{
			DrawReconcileInterval: time.Minute,
			WinnerSelectInterval:  time.Minute,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
