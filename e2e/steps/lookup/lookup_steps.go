package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTWithoutAuth(path string, body any) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers manager-lookup step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &lookupSteps{tc: tc}

	ctx.Step(`^I look up managers for agents "([^"]*)"$`, steps.lookupManagersFor)
	ctx.Step(`^I look up managers for agents "([^"]*)" without an API key$`, steps.lookupManagersWithoutKey)
	ctx.Step(`^I look up managers with an empty agent list$`, steps.lookupWithEmptyList)
	ctx.Step(`^agent "([^"]*)" should map to manager "([^"]*)"$`, steps.agentShouldMapTo)
	ctx.Step(`^agent "([^"]*)" should have no manager$`, steps.agentShouldHaveNoManager)
	ctx.Step(`^the managers map should be empty$`, steps.managersMapShouldBeEmpty)
}

type lookupSteps struct {
	tc TestContext
}

func (s *lookupSteps) lookupManagersFor(ctx context.Context, agents string) error {
	return s.tc.POST("/api/managers", map[string]any{
		"agents": strings.Split(agents, ","),
	})
}

func (s *lookupSteps) lookupManagersWithoutKey(ctx context.Context, agents string) error {
	return s.tc.POSTWithoutAuth("/api/managers", map[string]any{
		"agents": strings.Split(agents, ","),
	})
}

func (s *lookupSteps) lookupWithEmptyList(ctx context.Context) error {
	return s.tc.POST("/api/managers", map[string]any{
		"agents": []string{},
	})
}

// managersField pulls the "managers" object out of the last response.
func (s *lookupSteps) managersField() (map[string]any, error) {
	value, err := s.tc.GetResponseField("managers")
	if err != nil {
		return nil, err
	}
	managers, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("managers field is %T, want an object", value)
	}
	return managers, nil
}

func (s *lookupSteps) agentShouldMapTo(ctx context.Context, agent, manager string) error {
	managers, err := s.managersField()
	if err != nil {
		return err
	}
	value, ok := managers[agent]
	if !ok {
		return fmt.Errorf("agent %q missing from managers map", agent)
	}
	got, ok := value.(string)
	if !ok {
		return fmt.Errorf("agent %q maps to %v, want %q", agent, value, manager)
	}
	if got != manager {
		return fmt.Errorf("agent %q maps to %q, want %q", agent, got, manager)
	}
	return nil
}

func (s *lookupSteps) agentShouldHaveNoManager(ctx context.Context, agent string) error {
	managers, err := s.managersField()
	if err != nil {
		return err
	}
	value, ok := managers[agent]
	if !ok {
		return fmt.Errorf("agent %q missing from managers map", agent)
	}
	if value != nil {
		return fmt.Errorf("agent %q maps to %v, want null", agent, value)
	}
	return nil
}

func (s *lookupSteps) managersMapShouldBeEmpty(ctx context.Context) error {
	managers, err := s.managersField()
	if err != nil {
		return err
	}
	if len(managers) != 0 {
		return fmt.Errorf("managers map has %d entries, want none: %v", len(managers), managers)
	}
	return nil
}
