package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage"
)

// Store is an in-memory AuditSink
type Store struct {
	mu      sync.RWMutex
	records []*domain.UsageRecord
	ids     map[string]struct{}
}

var _ storage.AuditSink = (*Store)(nil)

// New creates a new in-memory store
func New() *Store {
	return &Store{
		ids: make(map[string]struct{}),
	}
}

func (s *Store) InsertUsage(ctx context.Context, rec *domain.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[rec.ID]; exists {
		return fmt.Errorf("%w: %s", storage.ErrDuplicateRecord, rec.ID)
	}

	cp := *rec
	s.records = append(s.records, &cp)
	s.ids[rec.ID] = struct{}{}
	return nil
}

func (s *Store) ListUsage(ctx context.Context, opts storage.UsageListOptions) ([]*domain.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Insertion order is chronological; walk backwards for newest first
	var result []*domain.UsageRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if opts.ActorID != "" && rec.ActorID != opts.ActorID {
			continue
		}
		cp := *rec
		result = append(result, &cp)
	}

	start := opts.Offset
	if start >= len(result) {
		return []*domain.UsageRecord{}, nil
	}

	limit := opts.Limit
	if limit == 0 {
		limit = storage.DefaultListLimit
	}
	end := start + limit
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Close() error {
	return nil
}
