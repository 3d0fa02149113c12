package store

import (
	"context"
	"sync"

	"agentdir/internal/managers/models"
)

// InMemoryStore serves assignments from a seeded map. Used by tests; the
// deployed store is PostgresStore.
type InMemoryStore struct {
	mu          sync.RWMutex
	assignments map[string][]models.Assignment
}

// NewMemory constructs an empty in-memory assignment store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		assignments: make(map[string][]models.Assignment),
	}
}

// Add seeds one assignment row for an agent. A nil manager marks an agent in
// scope with nobody assigned.
func (s *InMemoryStore) Add(agent string, manager *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[agent] = append(s.assignments[agent], models.Assignment{
		Agent:   agent,
		Manager: manager,
	})
}

type assignmentKey struct {
	manager string
	null    bool
}

// FindAssignments mirrors the SQL store: only requested agents are returned,
// duplicate (agent, manager) pairs collapse, and unknown agents yield no row.
func (s *InMemoryStore) FindAssignments(_ context.Context, agents []string) ([]models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requested := make(map[string]bool, len(agents))
	var found []models.Assignment
	for _, agent := range agents {
		if requested[agent] {
			continue
		}
		requested[agent] = true

		seen := make(map[assignmentKey]bool)
		for _, assignment := range s.assignments[agent] {
			key := assignmentKey{null: assignment.Manager == nil}
			if assignment.Manager != nil {
				key.manager = *assignment.Manager
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			found = append(found, assignment)
		}
	}
	return found, nil
}
