package middleware

import (
	"net/http"

	"ticket-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity reads the caller id issued by the upstream auth service from the
// X-User-ID header and puts it on the request context. Identity issuance
// itself lives outside this service.
func Identity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-User-ID")
			if raw == "" {
				utils.ResponseBadRequest(w, "Missing X-User-ID header", nil)
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				logger.Warn("Invalid X-User-ID header",
					zap.String("value", raw),
					zap.Error(err))
				utils.ResponseBadRequest(w, "Invalid X-User-ID header", nil)
				return
			}

			ctx := utils.SetUserContext(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
