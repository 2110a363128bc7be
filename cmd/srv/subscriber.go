package main

import (
	"context"
	"time"

	"github.com/prizeloop/backend/internal/model"
	"github.com/prizeloop/backend/pkg/kafka"
	"github.com/prizeloop/backend/pkg/pubsub"
	"github.com/prizeloop/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

// startSubscriber runs the audit worker: it consumes every benefit event and
// writes it to the log, which gives operations a replayable trail of grants,
// conversions, and winner selections.
func (s *srv) startSubscriber(ct *cli.Context) error {
	s.loadConfig(ct)
	s.loadLogger()

	subscriber, err := kafka.NewSubscriber(
		"prizeloop-audit",
		[]string{xcontext.Configs(s.ctx).Kafka.Addr},
		[]string{
			model.PurchaseCompletedTopic,
			model.EntriesAddedTopic,
			model.ReferralConvertedTopic,
			model.WinnerSelectedTopic,
		},
		s.auditEvent,
		s.logger.Errorf,
	)
	if err != nil {
		return err
	}

	s.logger.Infof("Audit subscriber started")
	subscriber.Subscribe(s.ctx)
	<-s.ctx.Done()

	return subscriber.Stop(s.ctx)
}

func (s *srv) auditEvent(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	s.logger.Infof("event | %s | %s | %s", t.Format(time.RFC3339), pack.Key, pack.Msg)
}
