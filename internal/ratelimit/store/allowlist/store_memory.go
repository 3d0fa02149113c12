package allowlist

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"agentdir/internal/ratelimit/models"
)

// MemoryStore keeps allowlist entries in process memory. Entries are seeded
// from static configuration at startup; there is no runtime admin surface
// that mutates them.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*models.AllowlistEntry
}

// NewMemory constructs a memory-backed allowlist store seeded with the given
// IPs. Seeded entries never expire.
func NewMemory(seed []string) (*MemoryStore, error) {
	s := &MemoryStore{
		entries: make(map[string]*models.AllowlistEntry, len(seed)),
	}
	for _, ip := range seed {
		entry, err := models.NewAllowlistEntry(ip, "configured allowlist", nil)
		if err != nil {
			return nil, fmt.Errorf("seed allowlist: %w", err)
		}
		s.entries[entry.Identifier] = entry
	}
	return s, nil
}

func (s *MemoryStore) IsAllowlisted(ctx context.Context, identifier string) (bool, error) {
	if identifier == "" {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[identifier]
	if !ok {
		return false, nil
	}
	return !entry.IsExpired(), nil
}

func (s *MemoryStore) Add(ctx context.Context, entry *models.AllowlistEntry) error {
	if entry == nil {
		return fmt.Errorf("allowlist entry is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Identifier] = entry
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*models.AllowlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*models.AllowlistEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.IsExpired() {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identifier < entries[j].Identifier
	})
	return entries, nil
}
