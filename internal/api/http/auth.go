package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"ricemeet-backend/internal/config"
	"ricemeet-backend/internal/logger"
	"ricemeet-backend/internal/security"
)

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Middleware authenticates the request according to the security level of
// the matched route.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var route string
		if cur := mux.CurrentRoute(r); cur != nil {
			route = cur.GetName()
		}
		level := config.GetSecurityLevel(route)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeStatus(w, http.StatusUnauthorized, codeUnauthenticated, "", "authorization token is not provided")
			return
		}
		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			logger.Debug("Rejected token", "route", route, "error", err)
			writeStatus(w, http.StatusUnauthorized, codeUnauthenticated, "", "invalid token")
			return
		}
		if level == config.SecurityAdmin && !claims.HasRole(security.RoleAdmin) {
			writeStatus(w, http.StatusForbidden, "FORBIDDEN", "ADMIN_ONLY", "admin role required")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}
