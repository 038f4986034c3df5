package controllers

import (
	"net/http"

	"github.com/flexfitapp/flexfit-backend/api/middleware"
	"github.com/flexfitapp/flexfit-backend/api/responses"
	"github.com/flexfitapp/flexfit-backend/internal/profiles"
	"github.com/flexfitapp/flexfit-backend/pkg/db/models"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
)

type profileResponse struct {
	UserID             string  `json:"user_id"`
	Email              string  `json:"email"`
	SubscriptionTier   *string `json:"subscription_tier"`
	SubscriptionActive bool    `json:"subscription_active"`
	CancelAtPeriodEnd  bool    `json:"cancel_at_period_end"`
}

func newProfileResponse(profile *models.Profile) profileResponse {
	return profileResponse{
		UserID:             profile.UserID,
		Email:              profile.Email,
		SubscriptionTier:   profile.SubscriptionTier,
		SubscriptionActive: profile.SubscriptionActive,
		CancelAtPeriodEnd:  profile.CancelAtPeriodEnd,
	}
}

// ProfileEnsure creates the caller's profile on first login. Safe to call on
// every login; replays answer 200 with the existing row.
func ProfileEnsure(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		email := middleware.EmailFromContext(r.Context())

		profile, created, err := svc.EnsureProfile(r.Context(), userID, email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := newProfileResponse(profile)
		if created {
			responses.WriteSuccessStatus(w, http.StatusCreated, resp)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// SubscriptionStatus reports the caller's subscription view.
func SubscriptionStatus(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		profile, err := svc.Status(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProfileResponse(profile))
	}
}
