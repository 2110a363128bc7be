package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Load builds the configurations from environment variables. If tomlPath is
// not empty, values from that file override the environment.
func Load(tomlPath string) (Configs, error) {
	cfg := Configs{
		Env: getEnv("ENV", "local"),
		Database: DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			User:     getEnv("MYSQL_USER", "prizeloop"),
			Password: getEnv("MYSQL_PASSWORD", "prizeloop"),
			Database: getEnv("MYSQL_DATABASE", "prizeloop"),
		},
		ApiServer: ServerConfigs{
			Host:      getEnv("API_HOST", "localhost"),
			Port:      getEnv("API_PORT", "8080"),
			Cert:      getEnv("API_CERT", ""),
			Key:       getEnv("API_KEY", ""),
			AllowCORS: []string{getEnv("API_ALLOW_CORS", "*")},
		},
		Redis: RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfigs{
			Addr: getEnv("KAFKA_ADDR", "localhost:9092"),
		},
		Benefit: BenefitConfigs{
			MaxRetries:          getEnvInt("BENEFIT_MAX_RETRIES", 3),
			RetryBackoff:        getEnvDuration("BENEFIT_RETRY_BACKOFF", 50*time.Millisecond),
			ProcessedPaymentTTL: getEnvDuration("BENEFIT_PROCESSED_PAYMENT_TTL", 24*time.Hour),
		},
		Referral: ReferralConfigs{
			BonusEntries: getEnvInt("REFERRAL_BONUS_ENTRIES", 5),
		},
		Discount: DiscountConfigs{
			ExpiryMonths:       getEnvInt("DISCOUNT_EXPIRY_MONTHS", 12),
			KeepExpiredHistory: getEnvInt("DISCOUNT_KEEP_EXPIRED_HISTORY", 3),
		},
		Cron: CronConfigs{
			DrawReconcileInterval: getEnvDuration("CRON_DRAW_RECONCILE_INTERVAL", 5*time.Minute),
			WinnerSelectInterval:  getEnvDuration("CRON_WINNER_SELECT_INTERVAL", 15*time.Minute),
		},
	}

	if tomlPath != "" {
		if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
			return Configs{}, err
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return def
}

func getEnvInt(key string, def int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}

	return d
}
