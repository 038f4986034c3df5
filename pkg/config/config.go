package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Gate         GateConfig
	OpenAI       OpenAIConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FLEXFIT_APP_ENV" required:"true"`
	Port         string `envconfig:"FLEXFIT_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"FLEXFIT_APP_BASE_URL" required:"true"`
	LogLevel     string `envconfig:"FLEXFIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLEXFIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FLEXFIT_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"FLEXFIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLEXFIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLEXFIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLEXFIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLEXFIT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLEXFIT_REDIS_ADDR"`
	Password     string        `envconfig:"FLEXFIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLEXFIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLEXFIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLEXFIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLEXFIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLEXFIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLEXFIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the session tokens minted by the upstream identity
// provider. This service only verifies them, it never issues.
type JWTConfig struct {
	Secret string `envconfig:"FLEXFIT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"FLEXFIT_JWT_ISSUER" required:"true"`
}

type StripeConfig struct {
	APIKey string `envconfig:"FLEXFIT_STRIPE_API_KEY"`
	Secret string `envconfig:"FLEXFIT_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"FLEXFIT_STRIPE_ENV" default:"test"`

	PriceWeekly  string `envconfig:"FLEXFIT_STRIPE_PRICE_WEEKLY"`
	PriceMonthly string `envconfig:"FLEXFIT_STRIPE_PRICE_MONTHLY"`
	PriceYearly  string `envconfig:"FLEXFIT_STRIPE_PRICE_YEARLY"`

	IdempotencyTTL time.Duration `envconfig:"FLEXFIT_STRIPE_EVENT_IDEMPOTENCY_TTL" default:"72h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// GateConfig drives the access-gate redirects and the fast-path flag cache.
type GateConfig struct {
	SignUpPath    string        `envconfig:"FLEXFIT_GATE_SIGNUP_PATH" default:"/sign-up"`
	SubscribePath string        `envconfig:"FLEXFIT_GATE_SUBSCRIBE_PATH" default:"/subscribe"`
	ContentPath   string        `envconfig:"FLEXFIT_GATE_CONTENT_PATH" default:"/workoutplan"`
	FlagCacheTTL  time.Duration `envconfig:"FLEXFIT_GATE_FLAG_CACHE_TTL" default:"30s"`
}

type OpenAIConfig struct {
	APIKey  string `envconfig:"FLEXFIT_OPENAI_API_KEY"`
	Model   string `envconfig:"FLEXFIT_OPENAI_MODEL" default:"gpt-4o-mini"`
	BaseURL string `envconfig:"FLEXFIT_OPENAI_BASE_URL"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLEXFIT_AUTO_MIGRATE" default:"false"`
}
