package e2e

import (
	"github.com/cucumber/godog"

	"agentdir/e2e/steps/common"
	"agentdir/e2e/steps/lookup"
	"agentdir/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register lookup-specific steps
	lookup.RegisterSteps(ctx, tc)

	// Register rate-limiting steps
	ratelimit.RegisterSteps(ctx, tc)
}
