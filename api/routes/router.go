package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flexfitapp/flexfit-backend/api/controllers"
	webhookcontrollers "github.com/flexfitapp/flexfit-backend/api/controllers/webhooks"
	"github.com/flexfitapp/flexfit-backend/api/middleware"
	"github.com/flexfitapp/flexfit-backend/internal/plans"
	"github.com/flexfitapp/flexfit-backend/internal/profiles"
	subscriptionsvc "github.com/flexfitapp/flexfit-backend/internal/subscriptions"
	stripewebhook "github.com/flexfitapp/flexfit-backend/internal/webhooks/stripe"
	"github.com/flexfitapp/flexfit-backend/internal/workouts"
	"github.com/flexfitapp/flexfit-backend/pkg/config"
	"github.com/flexfitapp/flexfit-backend/pkg/db"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
	"github.com/flexfitapp/flexfit-backend/pkg/metrics"
	"github.com/flexfitapp/flexfit-backend/pkg/redis"
	"github.com/flexfitapp/flexfit-backend/pkg/stripe"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Cfg     *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Catalog *plans.Catalog
	Metrics *metrics.BillingMetrics

	ProfileService      profiles.Service
	SubscriptionService subscriptionsvc.Service
	WorkoutService      workouts.Service

	StripeClient *stripe.Client
	WebhookSvc   *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	logg := p.Logger
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Cfg))
		r.Get("/ready", controllers.HealthReady(p.Cfg, p.DB, p.Redis, logg))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface.
		r.Get("/plans", controllers.Plans(p.Catalog, logg))
		r.Get("/check-subscription", controllers.CheckSubscription(p.ProfileService, logg))
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(p.WebhookSvc, p.StripeClient, p.WebhookGuard, logg))

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(p.Cfg.JWT, logg))

			r.Post("/profile", controllers.ProfileEnsure(p.ProfileService, logg))
			r.Get("/profile/subscription-status", controllers.SubscriptionStatus(p.ProfileService, logg))
			r.Post("/checkout", controllers.CheckoutCreate(p.SubscriptionService, logg))
			r.Post("/profile/change-plan", controllers.ChangePlan(p.SubscriptionService, logg))
			r.Post("/profile/unsubscribe", controllers.Unsubscribe(p.SubscriptionService, logg))

			// The workout generator sits behind the subscription gate on
			// top of auth: content is for paying users only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Gate(middleware.GateParams{
					Cfg:     p.Cfg.Gate,
					Flags:   p.ProfileService,
					Metrics: p.Metrics,
					Logger:  logg,
				}))
				r.Post("/workoutplan", controllers.WorkoutPlanGenerate(p.WorkoutService, logg))
			})
		})
	})

	return r
}
