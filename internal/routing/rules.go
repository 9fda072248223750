package routing

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
)

// RouteRule is a tenant-defined transformation hint between sectors.
//
// Rules are advisory only: they are rendered into the classification prompt
// as free text and never mechanically enforced. The model may ignore a rule;
// the pipeline does not verify compliance.
type RouteRule struct {
	TenantID   string `json:"tenant_id" db:"tenant_id"`
	FromSector Sector `json:"from_sector" db:"from_sector"`
	ToSector   Sector `json:"to_sector" db:"to_sector"`
	Predicate  string `json:"predicate" db:"predicate"`
	Priority   int    `json:"priority" db:"priority"`
}

// RuleStore loads a tenant's rules, highest priority first.
// Every query is tenant-scoped; defense-in-depth on top of storage isolation.
type RuleStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]RouteRule, error)
}

// PostgresRuleStore reads route_rules.
type PostgresRuleStore struct {
	DB *sql.DB
}

func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore { return &PostgresRuleStore{DB: db} }

func (s *PostgresRuleStore) ListByTenant(ctx context.Context, tenantID string) ([]RouteRule, error) {
	if s.DB == nil {
		return nil, errors.New("routing: db not configured")
	}
	if tenantID == "" {
		return nil, errors.New("routing: tenant_id required")
	}

	const q = `
SELECT tenant_id, from_sector, to_sector, predicate, priority
FROM route_rules
WHERE tenant_id = $1
ORDER BY priority DESC, from_sector, to_sector
`
	rows, err := s.DB.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RouteRule
	for rows.Next() {
		var r RouteRule
		if err := rows.Scan(&r.TenantID, &r.FromSector, &r.ToSector, &r.Predicate, &r.Priority); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MemoryRuleStore is an in-memory rule store useful for tests.
type MemoryRuleStore struct {
	mu    sync.RWMutex
	rules map[string][]RouteRule
}

func NewMemoryRuleStore() *MemoryRuleStore {
	return &MemoryRuleStore{rules: map[string][]RouteRule{}}
}

func (s *MemoryRuleStore) Put(r RouteRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.TenantID] = append(s.rules[r.TenantID], r)
}

func (s *MemoryRuleStore) ListByTenant(ctx context.Context, tenantID string) ([]RouteRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RouteRule, len(s.rules[tenantID]))
	copy(out, s.rules[tenantID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}
