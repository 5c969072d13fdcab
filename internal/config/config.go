package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for withdrawal notifications (Brevo)
	MailFrom            string
	ReviewerEmail       string // REVIEWER_EMAIL receives "withdrawal submitted" notices

	LogLevel  string
	LogPretty bool

	WithdrawalFeeRate  decimal.Decimal
	WithdrawalMinFee   decimal.Decimal
	LotReleaseSchedule string
	TierCacheTTL       time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("WITHDRAWAL_FEE_RATE", "0.005")
	viper.SetDefault("WITHDRAWAL_MIN_FEE", "10")
	viper.SetDefault("LOT_RELEASE_SCHEDULE", "@every 1h")
	viper.SetDefault("TIER_CACHE_TTL", "10m")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	feeRate, err := decimal.NewFromString(viper.GetString("WITHDRAWAL_FEE_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid WITHDRAWAL_FEE_RATE: %w", err)
	}
	minFee, err := decimal.NewFromString(viper.GetString("WITHDRAWAL_MIN_FEE"))
	if err != nil {
		return nil, fmt.Errorf("invalid WITHDRAWAL_MIN_FEE: %w", err)
	}
	if feeRate.IsNegative() || minFee.IsNegative() {
		return nil, fmt.Errorf("withdrawal fee settings must not be negative")
	}
	cacheTTL, err := time.ParseDuration(viper.GetString("TIER_CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIER_CACHE_TTL: %w", err)
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		ReviewerEmail:       viper.GetString("REVIEWER_EMAIL"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		LogPretty:           strings.EqualFold(viper.GetString("LOG_PRETTY"), "true"),
		WithdrawalFeeRate:   feeRate,
		WithdrawalMinFee:    minFee,
		LotReleaseSchedule:  viper.GetString("LOT_RELEASE_SCHEDULE"),
		TierCacheTTL:        cacheTTL,
	}, nil
}
