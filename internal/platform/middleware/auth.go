package middleware

import (
	"crypto/subtle"
	"net/http"

	"log/slog"

	"agentdir/pkg/platform/httputil"
	"agentdir/pkg/requestcontext"
)

// APIKeyHeader carries the client credential.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey authenticates requests against the configured key set.
//
// Every configured key is compared in constant time and the scan never
// short-circuits on a match, so response timing reveals neither key contents
// nor which key matched. Failures get a stable 401 body.
func RequireAPIKey(keys []string, logger *slog.Logger) func(http.Handler) http.Handler {
	keySet := make([][]byte, len(keys))
	for i, k := range keys {
		keySet[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := []byte(r.Header.Get(APIKeyHeader))

			match := 0
			for _, key := range keySet {
				match |= subtle.ConstantTimeCompare(presented, key)
			}

			if len(presented) == 0 || match != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access attempt",
					"request_id", GetRequestID(ctx),
					"ip", requestcontext.ClientIP(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized,
					httputil.ErrorResponse{Error: "Unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
