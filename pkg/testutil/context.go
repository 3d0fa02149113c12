package testutil

import (
	"net/http"

	"agentdir/pkg/requestcontext"
)

// WithAPIKey sets the X-API-Key header on the request.
// This is the typical state for an authenticated request.
func WithAPIKey(req *http.Request, key string) *http.Request {
	req.Header.Set("X-API-Key", key)
	return req
}

// WithClientIP adds a client IP to the request context.
// This simulates what the metadata middleware would do, so rate-limit and
// logging code under test sees a resolved client address.
func WithClientIP(req *http.Request, ip string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, req.Header.Get("User-Agent"))
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}
