package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	Redis     RedisConfigs
	Kafka     KafkaConfigs
	Benefit   BenefitConfigs
	Referral  ReferralConfigs
	Discount  DiscountConfigs
	Cron      CronConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string

	AllowCORS []string
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}

type BenefitConfigs struct {
	// MaxRetries bounds the retry loop around the benefit write path when
	// the database reports a transient conflict.
	MaxRetries int

	// RetryBackoff is the initial backoff, doubled after every failed
	// attempt.
	RetryBackoff time.Duration

	// ProcessedPaymentTTL is how long a processed payment reference stays
	// in the redis fast path. The payment event table is the authoritative
	// record, this cache only short-circuits duplicated deliveries.
	ProcessedPaymentTTL time.Duration
}

type ReferralConfigs struct {
	// BonusEntries is granted to both referrer and invitee when a referral
	// event converts.
	BonusEntries int
}

type DiscountConfigs struct {
	// ExpiryMonths is how many months an item may wait in the queue before
	// it is dropped.
	ExpiryMonths int

	// KeepExpiredHistory is the number of most recent expired items kept
	// per user.
	KeepExpiredHistory int
}

type CronConfigs struct {
	DrawReconcileInterval time.Duration
	WinnerSelectInterval  time.Duration
}
