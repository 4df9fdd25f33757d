package auth

import (
	"net/http"
	"strings"

	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/shared"
)

// SessionExpiredMessage is returned to API callers without a session.
const SessionExpiredMessage = "Sesión expirada. Por favor recargue la página."

// RequireSession rejects anonymous requests: API paths get a 401 JSON
// envelope, pages are redirected to the login form.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.SessionFromContext(r.Context()).User() != "" {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			httpx.Fail(w, http.StatusUnauthorized, SessionExpiredMessage)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}
