// Package config holds rate limit configuration: parsed limit specs mapped to
// endpoint classes.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agentdir/internal/ratelimit/models"
)

// Limit is one parsed rate limit: a request budget over a sliding window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// ParseLimit parses a limit spec in the conventional "100 per hour" form.
// The slash shorthand "100/hour" and plural units are accepted. Supported
// windows: second, minute, hour, day.
func ParseLimit(spec string) (Limit, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" {
		return Limit{}, fmt.Errorf("empty rate limit spec")
	}

	var countPart, unitPart string
	switch {
	case strings.Contains(s, "/"):
		parts := strings.SplitN(s, "/", 2)
		countPart = strings.TrimSpace(parts[0])
		unitPart = strings.TrimSpace(parts[1])
	default:
		fields := strings.Fields(s)
		if len(fields) != 3 || fields[1] != "per" {
			return Limit{}, fmt.Errorf("invalid rate limit spec %q: want \"<count> per <window>\"", spec)
		}
		countPart, unitPart = fields[0], fields[2]
	}

	count, err := strconv.Atoi(countPart)
	if err != nil || count <= 0 {
		return Limit{}, fmt.Errorf("invalid rate limit count %q: want a positive integer", countPart)
	}

	window, ok := unitWindow(unitPart)
	if !ok {
		return Limit{}, fmt.Errorf("invalid rate limit window %q: want second, minute, hour, or day", unitPart)
	}

	return Limit{RequestsPerWindow: count, Window: window}, nil
}

func unitWindow(unit string) (time.Duration, bool) {
	switch strings.TrimSuffix(unit, "s") {
	case "second":
		return time.Second, true
	case "minute":
		return time.Minute, true
	case "hour":
		return time.Hour, true
	case "day":
		return 24 * time.Hour, true
	}
	return 0, false
}

// Config maps endpoint classes to their limits. Classes without an entry are
// default-denied by the service, so construction must cover every routed class.
type Config struct {
	limits map[models.EndpointClass]Limit
}

// New builds a Config from explicit limits.
func New(defaultLimit, lookupLimit Limit) *Config {
	return &Config{
		limits: map[models.EndpointClass]Limit{
			models.ClassDefault: defaultLimit,
			models.ClassLookup:  lookupLimit,
		},
	}
}

// FromStrings parses the two limit specs and builds a Config.
func FromStrings(defaultSpec, lookupSpec string) (*Config, error) {
	defaultLimit, err := ParseLimit(defaultSpec)
	if err != nil {
		return nil, fmt.Errorf("default rate limit: %w", err)
	}
	lookupLimit, err := ParseLimit(lookupSpec)
	if err != nil {
		return nil, fmt.Errorf("lookup rate limit: %w", err)
	}
	return New(defaultLimit, lookupLimit), nil
}

// DefaultConfig mirrors the production defaults: 100 per hour for general
// traffic, 5 per hour for directory lookups.
func DefaultConfig() *Config {
	return New(
		Limit{RequestsPerWindow: 100, Window: time.Hour},
		Limit{RequestsPerWindow: 5, Window: time.Hour},
	)
}

// GetLimit returns the budget and window for a class.
// ok is false when the class has no configured limit.
func (c *Config) GetLimit(class models.EndpointClass) (int, time.Duration, bool) {
	limit, ok := c.limits[class]
	if !ok {
		return 0, 0, false
	}
	return limit.RequestsPerWindow, limit.Window, true
}
