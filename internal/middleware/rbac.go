package middleware

import (
	"net/http"
)

// RequireRole checks if the caller has the required role
func RequireRole(roleName string) func(http.Handler) http.Handler {
	return RequireAnyRole(roleName)
}

// RequireAnyRole checks if the caller has any of the required roles
func RequireAnyRole(roleNames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentity(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			for _, role := range roleNames {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}
