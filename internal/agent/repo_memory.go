package agent

import (
	"context"
	"sort"
	"sync"

	"helpdesk-platform/internal/routing"
)

// MemoryRepo is an in-memory registry useful for tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	profiles []Profile
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Put(p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = append(r.profiles, p)
}

func (r *MemoryRepo) FindActive(ctx context.Context, tenantID string, sector routing.Sector) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Profile
	for _, p := range r.profiles {
		if p.TenantID == tenantID && p.Sector == sector && p.Active {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return Profile{}, ErrNotFound
	}
	// Same deterministic pick as the SQL repo.
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches[0], nil
}
