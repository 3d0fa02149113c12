package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	SetForwardedFor(ip string)
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers rate-limiting step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^requests originate from IP "([^"]*)"$`, steps.requestsOriginateFromIP)
	ctx.Step(`^I send (\d+) lookup requests? for agent "([^"]*)"$`, steps.sendLookupRequests)
	ctx.Step(`^the response should include rate limit headers$`, steps.responseIncludesRateLimitHeaders)
	ctx.Step(`^the remaining budget should be (\d+)$`, steps.remainingBudgetShouldBe)
	ctx.Step(`^the response should advise a retry delay$`, steps.responseAdvisesRetryDelay)
}

type ratelimitSteps struct {
	tc TestContext
}

// requestsOriginateFromIP pins the scenario to one client IP so its budget is
// isolated from every other scenario in the run.
func (s *ratelimitSteps) requestsOriginateFromIP(ctx context.Context, ip string) error {
	s.tc.SetForwardedFor(ip)
	return nil
}

func (s *ratelimitSteps) sendLookupRequests(ctx context.Context, count int, agent string) error {
	for i := 0; i < count; i++ {
		if err := s.tc.POST("/api/managers", map[string]any{"agents": []string{agent}}); err != nil {
			return fmt.Errorf("lookup %d of %d: %w", i+1, count, err)
		}
	}
	return nil
}

func (s *ratelimitSteps) responseIncludesRateLimitHeaders(ctx context.Context) error {
	for _, name := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"} {
		if s.tc.GetLastResponseHeader(name) == "" {
			return fmt.Errorf("header %s missing from response", name)
		}
	}
	return nil
}

func (s *ratelimitSteps) remainingBudgetShouldBe(ctx context.Context, expected int) error {
	raw := s.tc.GetLastResponseHeader("X-RateLimit-Remaining")
	if raw == "" {
		return fmt.Errorf("X-RateLimit-Remaining header missing")
	}
	remaining, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("X-RateLimit-Remaining is %q, want an integer", raw)
	}
	if remaining != expected {
		return fmt.Errorf("remaining budget is %d, want %d", remaining, expected)
	}
	return nil
}

func (s *ratelimitSteps) responseAdvisesRetryDelay(ctx context.Context) error {
	raw := s.tc.GetLastResponseHeader("Retry-After")
	if raw == "" {
		return fmt.Errorf("Retry-After header missing")
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fmt.Errorf("Retry-After is %q, want a positive integer", raw)
	}
	return nil
}
