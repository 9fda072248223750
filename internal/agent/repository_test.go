package agent

import (
	"context"
	"errors"
	"testing"

	"helpdesk-platform/internal/routing"
)

func TestMemoryRepo_NoActiveProfile(t *testing.T) {
	r := NewMemoryRepo()
	r.Put(Profile{ID: "p-1", TenantID: "t-1", Sector: routing.SectorBilling, Kind: KindInternal, Active: false})

	if _, err := r.FindActive(context.Background(), "t-1", routing.SectorBilling); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepo_TenantScoped(t *testing.T) {
	r := NewMemoryRepo()
	r.Put(Profile{ID: "p-1", TenantID: "t-2", Sector: routing.SectorSales, Kind: KindInternal, Active: true})

	if _, err := r.FindActive(context.Background(), "t-1", routing.SectorSales); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no cross-tenant match, got %v", err)
	}
}

func TestMemoryRepo_DuplicatesPickedDeterministically(t *testing.T) {
	r := NewMemoryRepo()
	r.Put(Profile{ID: "p-9", TenantID: "t-1", Sector: routing.SectorTechnical, Kind: KindInternal, Active: true})
	r.Put(Profile{ID: "p-2", TenantID: "t-1", Sector: routing.SectorTechnical, Kind: KindExternal, Active: true})

	for i := 0; i < 3; i++ {
		got, err := r.FindActive(context.Background(), "t-1", routing.SectorTechnical)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if got.ID != "p-2" {
			t.Fatalf("expected lowest id p-2, got %q", got.ID)
		}
	}
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"interno", KindInternal, true},
		{"internal", KindInternal, true},
		{"externo", KindExternal, true},
		{"external", KindExternal, true},
		{"hybrid", "", false},
	}
	for _, c := range cases {
		got, ok := ParseKind(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseKind(%q) = %q,%v; want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
