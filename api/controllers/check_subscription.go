package controllers

import (
	"net/http"

	"github.com/flexfitapp/flexfit-backend/api/responses"
	"github.com/flexfitapp/flexfit-backend/api/validators"
	"github.com/flexfitapp/flexfit-backend/internal/profiles"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
)

// CheckSubscription answers the lightweight "is this user paid up" question
// for the edge. Unknown users read as inactive rather than erroring, so the
// caller can treat the answer as a plain boolean.
func CheckSubscription(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID, err := validators.RequireQuery(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := svc.ActiveFlag(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"subscription_active": active})
	}
}
