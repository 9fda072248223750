package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, tenantID string, from, to time.Time) ([]Entry, error)
}

var ErrInvalidEntry = errors.New("audit: invalid entry")

// Service logs routing/execution audit records.
//
// Append is fire-and-forget: entries go onto a bounded queue drained by a
// background writer. A full queue or a failed write is logged and dropped,
// never propagated. This is the at-most-once-best-effort contract the
// pipeline depends on; callers must not treat a nil return as durability.
//
// AppendSync bypasses the queue for callers (and tests) that need the write
// settled before returning.
type Service struct {
	repo Repository
	log  *slog.Logger

	clock func() time.Time

	queue chan Entry
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once

	// writeTimeout bounds each background write.
	writeTimeout time.Duration
}

const defaultQueueSize = 1024

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:         repo,
		log:          log,
		clock:        time.Now,
		queue:        make(chan Entry, defaultQueueSize),
		writeTimeout: 5 * time.Second,
	}
}

// Start launches the background writer. Safe to call once; Append before
// Start only queues.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.drain()
	})
}

// Stop closes the queue and waits for queued entries to flush.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

func (s *Service) drain() {
	defer s.wg.Done()
	for e := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		if err := s.repo.Append(ctx, e); err != nil {
			s.log.Error("audit write failed", "tenant_id", e.TenantID, "action", e.Action, "err", err)
		}
		cancel()
	}
}

// Append validates, stamps, and enqueues an entry. It never blocks: if the
// queue is full the entry is dropped and the drop is logged.
func (s *Service) Append(ctx context.Context, e Entry) error {
	e, err := s.prepare(e)
	if err != nil {
		return err
	}

	select {
	case s.queue <- e:
		return nil
	default:
		s.log.Error("audit queue full, entry dropped", "tenant_id", e.TenantID, "action", e.Action)
		return nil
	}
}

// AppendSync writes the entry before returning.
func (s *Service) AppendSync(ctx context.Context, e Entry) error {
	e, err := s.prepare(e)
	if err != nil {
		return err
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) prepare(e Entry) (Entry, error) {
	if s.repo == nil {
		return Entry{}, errors.New("audit: repository not configured")
	}
	if e.TenantID == "" {
		return Entry{}, ErrInvalidEntry
	}
	if e.Action != ActionRoute && e.Action != ActionExecute {
		return Entry{}, ErrInvalidEntry
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return e, nil
}

// List returns a tenant's entries in a time window, for internal inspection.
func (s *Service) List(ctx context.Context, tenantID string, from, to time.Time) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if tenantID == "" {
		return nil, ErrInvalidEntry
	}
	return s.repo.List(ctx, tenantID, from, to)
}
