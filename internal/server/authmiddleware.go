package server

import (
	"net/http"

	"github.com/agutierrezreginodev/potencia-agenda/internal/auth"
)

// KindUnauthorized is the error kind returned for missing or unknown keys.
const KindUnauthorized = "unauthorized"

// AuthMiddleware validates API keys and injects the user into the context.
// If the authenticator is nil, the middleware is a no-op.
func AuthMiddleware(authenticator *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if authenticator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, err := auth.ExtractAPIKey(r)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, KindUnauthorized, err.Error())
				return
			}

			user, err := authenticator.ValidateAPIKey(apiKey)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, KindUnauthorized, "invalid API key")
				return
			}

			AddLogField(r.Context(), "user_id", user.ID)
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}
