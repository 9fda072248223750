package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory append-only repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu      sync.Mutex
	entries []Entry

	// AppendErr, when set, is returned by Append. Tests use it to simulate
	// audit sink failures.
	AppendErr error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AppendErr != nil {
		return r.AppendErr
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, tenantID string, from, to time.Time) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.TenantID != tenantID {
			continue
		}
		if !from.IsZero() && e.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.CreatedAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
