package config

// EnvPrefix is intentionally empty: every field carries a fully qualified
// FLEXFIT_* tag so grepping for an env var finds exactly one place.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Env var names used by tests and ops tooling.
const (
	EnvAppEnv     = "FLEXFIT_APP_ENV"
	EnvPort       = "FLEXFIT_APP_PORT"
	EnvBaseURL    = "FLEXFIT_APP_BASE_URL"
	EnvDBDSN      = "FLEXFIT_DB_DSN"
	EnvRedisURL   = "FLEXFIT_REDIS_URL"
	EnvJWTSecret  = "FLEXFIT_JWT_SECRET"
	EnvJWTIssuer  = "FLEXFIT_JWT_ISSUER"
	EnvStripeKey  = "FLEXFIT_STRIPE_API_KEY"
	EnvWebhookSec = "FLEXFIT_STRIPE_WEBHOOK_SECRET"
)
