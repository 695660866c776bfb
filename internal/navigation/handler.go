package navigation

import (
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/web"
)

// HandleList returns the dashboard links visible to the caller.
func HandleList(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.PrincipalFrom(r.Context())
		web.WriteJSON(w, logger, http.StatusOK, Visible(Dashboard, p.Role))
	}
}
