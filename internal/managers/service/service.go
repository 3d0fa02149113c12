package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"agentdir/internal/managers/metrics"
	"agentdir/internal/managers/models"
	dErrors "agentdir/pkg/domain-errors"
)

// Store reads assignment rows from the directory.
type Store interface {
	FindAssignments(ctx context.Context, agents []string) ([]models.Assignment, error)
}

// Service resolves agent usernames to their managers' emails. It keeps the
// single-query batch shape and the null-by-default response contract out of
// the handler.
type Service struct {
	store   Store
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("assignment store is required")
	}

	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Lookup maps every requested agent to its manager emails. Agents with no
// match stay nil; agents with several managers get one sorted, comma-joined
// string. An empty request resolves to an empty map without touching the
// store.
func (s *Service) Lookup(ctx context.Context, agents []string) (map[string]*string, error) {
	managers := make(map[string]*string, len(agents))
	for _, agent := range agents {
		managers[agent] = nil
	}
	if len(agents) == 0 {
		return managers, nil
	}

	start := time.Now()
	assignments, err := s.store.FindAssignments(ctx, agents)
	if err != nil {
		s.metrics.ObserveLookup(metrics.OutcomeError, len(agents), time.Since(start))
		return nil, dErrors.Wrap(err, dErrors.CodeDatabase, "manager lookup failed")
	}

	grouped := make(map[string]map[string]struct{})
	for _, assignment := range assignments {
		if assignment.Manager == nil || *assignment.Manager == "" {
			continue
		}
		set, ok := grouped[assignment.Agent]
		if !ok {
			set = make(map[string]struct{})
			grouped[assignment.Agent] = set
		}
		set[*assignment.Manager] = struct{}{}
	}

	for agent, set := range grouped {
		if _, requested := managers[agent]; !requested {
			continue
		}
		emails := make([]string, 0, len(set))
		for email := range set {
			emails = append(emails, email)
		}
		sort.Strings(emails)
		joined := strings.Join(emails, ",")
		managers[agent] = &joined
	}

	s.metrics.ObserveLookup(metrics.OutcomeSuccess, len(agents), time.Since(start))
	return managers, nil
}
