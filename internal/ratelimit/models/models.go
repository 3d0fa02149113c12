package models

import (
	"time"

	dErrors "agentdir/pkg/domain-errors"
)

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassDefault: every routed endpoint without a stricter class (health probes).
	ClassDefault EndpointClass = "default"
	// ClassLookup: the manager lookup endpoint, which hits the directory
	// database and gets a much tighter budget.
	ClassLookup EndpointClass = "lookup"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassDefault, ClassLookup:
		return true
	}
	return false
}

// String returns the string representation.
func (c EndpointClass) String() string {
	return string(c)
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Bypassed   bool      `json:"bypassed,omitempty"` // allowlisted, no quota consumed
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// AllowlistEntry represents an IP that bypasses rate limits.
type AllowlistEntry struct {
	Identifier string     `json:"identifier"` // IP address
	Reason     string     `json:"reason"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewAllowlistEntry creates an AllowlistEntry with domain invariant validation.
func NewAllowlistEntry(identifier, reason string, expiresAt *time.Time) (*AllowlistEntry, error) {
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identifier cannot be empty")
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reason cannot be empty")
	}

	return &AllowlistEntry{
		Identifier: identifier,
		Reason:     reason,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}, nil
}

// IsExpired checks if the allowlist entry has expired.
func (e *AllowlistEntry) IsExpired() bool {
	if e.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*e.ExpiresAt)
}
