package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointClassIsValid(t *testing.T) {
	assert.True(t, ClassDefault.IsValid())
	assert.True(t, ClassLookup.IsValid())
	assert.False(t, EndpointClass("").IsValid())
	assert.False(t, EndpointClass("admin").IsValid())
}

func TestNewRateLimitKey(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		class      EndpointClass
		expected   string
	}{
		{
			name:       "ipv4",
			identifier: "203.0.113.7",
			class:      ClassLookup,
			expected:   "ratelimit:ip:203.0.113.7:lookup",
		},
		{
			name:       "ipv6 colons are sanitized",
			identifier: "2001:db8::1",
			class:      ClassDefault,
			expected:   "ratelimit:ip:2001_db8__1:default",
		},
		{
			name:       "hostile identifier cannot inject segments",
			identifier: "briber:ip:10.0.0.1",
			class:      ClassLookup,
			expected:   "ratelimit:ip:briber_ip_10.0.0.1:lookup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewRateLimitKey(KeyPrefixIP, tt.identifier, tt.class)
			assert.Equal(t, tt.expected, key.String())
		})
	}
}

func TestNewAllowlistEntry(t *testing.T) {
	entry, err := NewAllowlistEntry("10.0.0.1", "load balancer health checks", nil)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", entry.Identifier)
	assert.False(t, entry.IsExpired())

	_, err = NewAllowlistEntry("", "reason", nil)
	assert.Error(t, err)

	_, err = NewAllowlistEntry("10.0.0.1", "", nil)
	assert.Error(t, err)
}

func TestAllowlistEntryIsExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	expired, err := NewAllowlistEntry("10.0.0.1", "temporary", &past)
	require.NoError(t, err)
	assert.True(t, expired.IsExpired())

	active, err := NewAllowlistEntry("10.0.0.2", "temporary", &future)
	require.NoError(t, err)
	assert.False(t, active.IsExpired())
}

func TestRateLimitExceededResponseShape(t *testing.T) {
	resp := NewRateLimitExceededResponse()
	assert.Equal(t, "Rate limit exceeded", resp.Error)
	assert.Equal(t, "Too many requests", resp.Message)
}
