package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_AppendSyncStampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo, nil)

	err := s.AppendSync(context.Background(), Entry{TenantID: "t-1", Action: ActionRoute, Payload: `{"setor":"INTAKE"}`})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got := repo.Entries()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at stamp")
	}
}

func TestService_AppendRejectsMissingTenant(t *testing.T) {
	s := NewService(NewMemoryRepo(), nil)
	if err := s.Append(context.Background(), Entry{Action: ActionRoute}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestService_AppendRejectsUnknownAction(t *testing.T) {
	s := NewService(NewMemoryRepo(), nil)
	if err := s.Append(context.Background(), Entry{TenantID: "t-1", Action: "delete"}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestService_BackgroundWriterFlushesOnStop(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo, nil)
	s.Start()

	for i := 0; i < 10; i++ {
		if err := s.Append(context.Background(), Entry{TenantID: "t-1", Action: ActionRoute, Payload: "{}"}); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	s.Stop()

	if got := len(repo.Entries()); got != 10 {
		t.Fatalf("expected 10 entries flushed, got %d", got)
	}
}

func TestService_WriteFailureIsSwallowed(t *testing.T) {
	repo := NewMemoryRepo()
	repo.AppendErr = errors.New("sink down")
	s := NewService(repo, nil)
	s.Start()

	if err := s.Append(context.Background(), Entry{TenantID: "t-1", Action: ActionExecute, Payload: "{}"}); err != nil {
		t.Fatalf("expected nil from fire-and-forget append, got %v", err)
	}
	s.Stop()

	if got := len(repo.Entries()); got != 0 {
		t.Fatalf("expected no entries stored, got %d", got)
	}
}

func TestService_ListFiltersByTenant(t *testing.T) {
	repo := NewMemoryRepo()
	s := NewService(repo, nil)

	_ = s.AppendSync(context.Background(), Entry{TenantID: "t-1", Action: ActionRoute, Payload: "{}"})
	_ = s.AppendSync(context.Background(), Entry{TenantID: "t-2", Action: ActionRoute, Payload: "{}"})

	got, err := s.List(context.Background(), "t-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].TenantID != "t-1" {
		t.Fatalf("expected only t-1 entries, got %+v", got)
	}
}
