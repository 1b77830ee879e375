package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/identity"
)

// userIDHeader carries the caller's identity. Authentication itself happens
// upstream; this service only needs the resolved user id.
const userIDHeader = "X-User-ID"

// RequireUser extracts the user id from the request header and stores it in
// the context. Requests without a valid id are rejected.
func RequireUser(logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(userIDHeader)
			if raw == "" {
				if err := ErrorResponse(w, http.StatusUnauthorized, "missing_user", "X-User-ID header is required"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}

			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID <= 0 {
				if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_user", "X-User-ID must be a positive integer"); err != nil {
					logger.Error("Failed to write error response", zap.Error(err))
				}
				return
			}

			next(w, r.WithContext(identity.WithUserID(r.Context(), userID)))
		}
	}
}
