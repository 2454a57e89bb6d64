package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"global-app/internal/logger"
	"global-app/internal/services"
)

// PresenceMiddleware records activity for authenticated requests. It must run
// after AuthMiddleware. Failures are logged and never fail the request.
func PresenceMiddleware(tracker services.PresenceTracker) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := GetUserIDFromContext(r.Context()); ok {
				if _, err := tracker.Touch(r.Context(), userID); err != nil {
					logger.L().Warn("presence update failed", zap.Uint("user_id", userID), zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff rejects non-staff users with 403. It must run after AuthMiddleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaimsFromContext(r.Context())
		if !ok {
			writeError(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		if !claims.IsStaff {
			writeError(w, "staff only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
