package tenant

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory tenant directory useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu         sync.RWMutex
	tenants    map[string]Tenant
	widgetKeys map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tenants: map[string]Tenant{}, widgetKeys: map[string]string{}}
}

func (r *MemoryRepo) Put(t Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
}

func (r *MemoryRepo) Get(ctx context.Context, tenantID string) (Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) PutWidgetKey(key, tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widgetKeys[key] = tenantID
}

func (r *MemoryRepo) ResolveWidgetKey(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenantID, ok := r.widgetKeys[key]
	if !ok {
		return "", ErrNotFound
	}
	return tenantID, nil
}
