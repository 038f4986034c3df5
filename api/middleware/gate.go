package middleware

import (
	"context"
	"net/http"

	"github.com/flexfitapp/flexfit-backend/pkg/config"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
	"github.com/flexfitapp/flexfit-backend/pkg/metrics"
)

// activeFlagChecker answers whether the user currently holds an active
// subscription.
type activeFlagChecker interface {
	ActiveFlag(ctx context.Context, userID string) (bool, error)
}

// GateParams groups dependencies for the access gate.
type GateParams struct {
	Cfg     config.GateConfig
	Flags   activeFlagChecker
	Metrics *metrics.BillingMetrics
	Logger  *logger.Logger
}

// Gate enforces the subscription boundary for the browser-facing area. The
// decision matrix:
//
//	open path                     -> pass (signed-in users on the sign-up
//	                                 page are bounced to the content)
//	no identity, protected path   -> redirect to sign-up
//	identity, flag false or flag
//	lookup failed                 -> redirect to subscribe
//	identity, flag true           -> pass
//
// A flag lookup failure never grants access; when the answer is unknown the
// gate assumes "no".
func Gate(params GateParams) func(http.Handler) http.Handler {
	cfg := params.Cfg
	openPaths := map[string]struct{}{
		"/":               {},
		cfg.SignUpPath:    {},
		cfg.SubscribePath: {},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			path := r.URL.Path

			if _, open := openPaths[path]; open {
				if path == cfg.SignUpPath && userID != "" {
					params.observe("redirect_content")
					http.Redirect(w, r, cfg.ContentPath, http.StatusFound)
					return
				}
				params.observe("open")
				next.ServeHTTP(w, r)
				return
			}

			if userID == "" {
				params.observe("redirect_signup")
				http.Redirect(w, r, cfg.SignUpPath, http.StatusFound)
				return
			}

			active, err := params.Flags.ActiveFlag(ctx, userID)
			if err != nil {
				if params.Logger != nil {
					params.Logger.Warn(ctx, "gate flag lookup failed, denying access")
				}
				params.observe("denied_error")
				http.Redirect(w, r, cfg.SubscribePath, http.StatusFound)
				return
			}
			if !active {
				params.observe("redirect_subscribe")
				http.Redirect(w, r, cfg.SubscribePath, http.StatusFound)
				return
			}

			params.observe("granted")
			next.ServeHTTP(w, r)
		})
	}
}

func (p GateParams) observe(decision string) {
	if p.Metrics != nil {
		p.Metrics.ObserveGateDecision(decision)
	}
}
