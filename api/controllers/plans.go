package controllers

import (
	"net/http"

	"github.com/flexfitapp/flexfit-backend/api/responses"
	"github.com/flexfitapp/flexfit-backend/internal/plans"
	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
	"github.com/flexfitapp/flexfit-backend/pkg/logger"
)

// Plans lists the sellable catalog. Public, static, no store access.
func Plans(catalog *plans.Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "plan catalog unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"plans": catalog.Available()})
	}
}
