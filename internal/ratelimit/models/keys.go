package models

import "strings"

// KeyPrefix namespaces rate limit keys by identifier kind.
type KeyPrefix string

// KeyPrefixIP marks keys derived from client IP addresses, the only
// identifier kind this service limits on.
const KeyPrefixIP KeyPrefix = "ip"

// RateLimitKey is a fully qualified bucket key.
type RateLimitKey string

// NewRateLimitKey builds the bucket key for an identifier and endpoint class.
// Segments are sanitized so user-controlled identifiers cannot collide with
// adjacent buckets.
func NewRateLimitKey(prefix KeyPrefix, identifier string, class EndpointClass) RateLimitKey {
	segments := []string{
		"ratelimit",
		string(prefix),
		SanitizeKeySegment(identifier),
		SanitizeKeySegment(string(class)),
	}
	return RateLimitKey(strings.Join(segments, ":"))
}

// String returns the key as a plain string for store lookups.
func (k RateLimitKey) String() string {
	return string(k)
}

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers containing
// ':' could manipulate adjacent rate limit buckets.
//
// Example: an IPv6 literal "2001:db8::1" becomes "2001_db8__1", keeping it a
// single segment.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
