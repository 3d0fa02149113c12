package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers the generic request and assertion steps shared by
// every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response error should be "([^"]*)"$`, steps.responseErrorShouldBe)
}

type commonSteps struct {
	tc TestContext
}

// serviceIsRunning probes the health endpoint; a transport error means the
// deployment under test is unreachable and the scenario cannot proceed.
func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	return s.tc.GET("/health", nil)
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("status is %d, want %d; body: %s", got, expected, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", value); got != expected {
		return fmt.Errorf("field %q is %q, want %q", field, got, expected)
	}
	return nil
}

func (s *commonSteps) responseErrorShouldBe(ctx context.Context, expected string) error {
	return s.responseFieldShouldEqual(ctx, "error", expected)
}
