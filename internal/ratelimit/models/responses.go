package models

// RateLimitExceededResponse is the API response when a rate limit is exceeded.
// The body shape is part of the public contract; clients match on it.
type RateLimitExceededResponse struct {
	Error   string `json:"error"`   // "Rate limit exceeded"
	Message string `json:"message"` // "Too many requests"
}

// NewRateLimitExceededResponse returns the stable 429 body.
func NewRateLimitExceededResponse() *RateLimitExceededResponse {
	return &RateLimitExceededResponse{
		Error:   "Rate limit exceeded",
		Message: "Too many requests",
	}
}
