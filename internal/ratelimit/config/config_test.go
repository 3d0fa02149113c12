package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdir/internal/ratelimit/models"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    Limit
		wantErr bool
	}{
		{"per hour", "100 per hour", Limit{100, time.Hour}, false},
		{"per minute", "10 per minute", Limit{10, time.Minute}, false},
		{"per second", "3 per second", Limit{3, time.Second}, false},
		{"per day", "1000 per day", Limit{1000, 24 * time.Hour}, false},
		{"plural unit", "100 per hours", Limit{100, time.Hour}, false},
		{"slash shorthand", "20/minute", Limit{20, time.Minute}, false},
		{"slash with spaces", "20 / minute", Limit{20, time.Minute}, false},
		{"mixed case with padding", "  5 PER Hour ", Limit{5, time.Hour}, false},
		{"empty", "", Limit{}, true},
		{"zero count", "0 per hour", Limit{}, true},
		{"negative count", "-5 per hour", Limit{}, true},
		{"not a number", "many per hour", Limit{}, true},
		{"unknown unit", "100 per fortnight", Limit{}, true},
		{"missing per", "100 hour", Limit{}, true},
		{"too many words", "100 per 5 hours", Limit{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLimit(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigGetLimit(t *testing.T) {
	cfg := DefaultConfig()

	count, window, ok := cfg.GetLimit(models.ClassDefault)
	require.True(t, ok)
	assert.Equal(t, 100, count)
	assert.Equal(t, time.Hour, window)

	count, window, ok = cfg.GetLimit(models.ClassLookup)
	require.True(t, ok)
	assert.Equal(t, 5, count)
	assert.Equal(t, time.Hour, window)

	_, _, ok = cfg.GetLimit(models.EndpointClass("admin"))
	assert.False(t, ok, "unconfigured classes must report no limit")
}

func TestFromStrings(t *testing.T) {
	cfg, err := FromStrings("1000 per hour", "20/minute")
	require.NoError(t, err)

	count, window, ok := cfg.GetLimit(models.ClassLookup)
	require.True(t, ok)
	assert.Equal(t, 20, count)
	assert.Equal(t, time.Minute, window)

	_, err = FromStrings("bogus", "5 per hour")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default rate limit")

	_, err = FromStrings("100 per hour", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup rate limit")
}
