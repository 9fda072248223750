package tenant

import (
	"context"
	"testing"
)

func TestMemoryRepo_GetMissing(t *testing.T) {
	r := NewMemoryRepo()
	if _, err := r.Get(context.Background(), "t-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepo_GetActiveFlag(t *testing.T) {
	r := NewMemoryRepo()
	r.Put(Tenant{ID: "t-1", Name: "Provedor Alfa", Active: false})

	got, err := r.Get(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Active {
		t.Fatalf("expected inactive tenant")
	}
}

func TestCachedDirectory_NoRedisFallsThrough(t *testing.T) {
	r := NewMemoryRepo()
	r.Put(Tenant{ID: "t-1", Name: "Provedor Alfa", Active: true})

	d := NewCachedDirectory(r, nil, 0, nil)
	got, err := d.Get(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Name != "Provedor Alfa" {
		t.Fatalf("unexpected tenant: %+v", got)
	}
}
