package middleware

import (
	"net/http"
	"strings"

	"infinite-experiment/kontrollburo/internal/auth"
	"infinite-experiment/kontrollburo/internal/db/repositories"
)

// AuthMiddleware accepts either a service API key or an operator bearer
// token. Every route under it carries a Claims value in the request context.
func AuthMiddleware(keysRepo *repositories.KeysRepo, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get("X-API-Key")

			var claims auth.Claims

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				token := strings.TrimPrefix(authHeader, "Bearer ")
				parsed, err := auth.ParseOperatorToken(jwtSecret, token)
				if err != nil {
					http.Error(w, "Unauthorized. Invalid token", http.StatusUnauthorized)
					return
				}
				claims = &auth.JWTClaims{Token: parsed}

			case apiKey != "":
				keyRes, err := keysRepo.GetStatus(r.Context(), apiKey)
				if err != nil {
					http.Error(w, "Unauthorized. Invalid API Key", http.StatusUnauthorized)
					return
				}
				if !keyRes.Status {
					http.Error(w, "Unauthorized. Inactive API Key", http.StatusUnauthorized)
					return
				}
				claims = &auth.APIKeyClaims{KeyID: keyRes.ApiKey}

			default:
				http.Error(w, "Unauthorized. Missing credentials", http.StatusUnauthorized)
				return
			}

			ctx := auth.SetClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRemovalManager gates the operator actions that mark subjects or
// trigger jobs.
func RequireRemovalManager() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.GetClaims(r.Context())
			if claims == nil || !claims.CanManageRemovals() {
				http.Error(w, "Forbidden. Need removal-management perms", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
