package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/flexfitapp/flexfit-backend/pkg/errors"
)

// RequireQuery returns the named query parameter or a validation error when
// it is absent or blank. A missing parameter is the caller's mistake, not a
// server fault.
func RequireQuery(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "missing required query parameter").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
