// Package models holds the manager lookup domain types and the agent list
// validation shared by handler and service.
package models

import (
	"fmt"
	"regexp"

	dErrors "agentdir/pkg/domain-errors"
)

// AgentFormat is the allowed shape of an agent username under strict
// validation.
var AgentFormat = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidationConfig controls the configurable limits on requested agent lists.
type ValidationConfig struct {
	MaxAgents    int
	StrictFormat bool
	AllowEmpty   bool
}

// Assignment is one agent→manager row from the directory. Manager is nil when
// the agent is in scope but nobody manages them.
type Assignment struct {
	Agent   string
	Manager *string
}

// ValidateAgents applies the configured limits to an already-parsed agent
// list. Errors carry the exact client-facing message.
func ValidateAgents(agents []string, cfg ValidationConfig) error {
	if len(agents) > cfg.MaxAgents {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("Too many agents, maximum %d", cfg.MaxAgents))
	}
	for _, agent := range agents {
		if agent == "" {
			if cfg.AllowEmpty {
				continue
			}
			return dErrors.New(dErrors.CodeInvalidInput, "Agent cannot be empty")
		}
		if cfg.StrictFormat && !AgentFormat.MatchString(agent) {
			return dErrors.New(dErrors.CodeInvalidInput, "Invalid agent format: "+agent)
		}
	}
	return nil
}
