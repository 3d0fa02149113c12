package handler

import (
	"encoding/json"

	dErrors "agentdir/pkg/domain-errors"
)

// LookupRequest is the HTTP request body for POST /api/managers.
// Agents stays raw until Validate so each malformed shape produces its exact
// client-facing message instead of a generic decode error.
type LookupRequest struct {
	Agents json.RawMessage `json:"agents"`

	// Parsed values (populated by Validate)
	parsedAgents []string
}

// Validate checks the structural shape of the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
// Count, emptiness, and format limits depend on configuration and are applied
// by the handler afterwards via models.ValidateAgents.
func (r *LookupRequest) Validate() error {
	if r == nil || len(r.Agents) == 0 || string(r.Agents) == "null" {
		return dErrors.New(dErrors.CodeBadRequest, "Missing 'agents' in request body")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(r.Agents, &elements); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "Agents must be a list")
	}

	agents := make([]string, len(elements))
	for i, element := range elements {
		// json.Unmarshal treats null as a no-op for strings, so catch it
		// explicitly.
		if string(element) == "null" {
			return dErrors.New(dErrors.CodeBadRequest, "Agents must be a list of strings")
		}
		var agent string
		if err := json.Unmarshal(element, &agent); err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "Agents must be a list of strings")
		}
		agents[i] = agent
	}
	r.parsedAgents = agents

	return nil
}

// ParsedAgents returns the validated agent list.
func (r *LookupRequest) ParsedAgents() []string {
	return r.parsedAgents
}
