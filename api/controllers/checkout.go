package controllers

import (
	"net/http"

	"github.com/flexfitapp/flexfit-backend/api/middleware"
	"github.com/flexfitapp/flexfit-backend/api/responses"
	"github.com/flexfitapp/flexfit-backend/api/validators"
	subsvc "github.com/flexfitapp/flexfit-backend/internal/subscriptions"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
)

type checkoutRequest struct {
	PlanKey string `json:"plan_key" validate:"required"`
}

// CheckoutCreate opens a hosted checkout session for the requested plan and
// returns the redirect URL.
func CheckoutCreate(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		email := middleware.EmailFromContext(r.Context())

		session, err := svc.InitiateCheckout(r.Context(), userID, email, payload.PlanKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, session)
	}
}
