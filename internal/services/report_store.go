package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/irfndi/exohunter-go/internal/database"
)

// ReportStore persists analysis reports. *database.ReportRepository is the
// Postgres implementation; MemoryReportStore backs the server when no
// database is configured.
type ReportStore interface {
	Save(ctx context.Context, record *database.ReportRecord) error
	Get(ctx context.Context, id string) (*database.ReportRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]database.ReportRecord, error)
	Delete(ctx context.Context, id string) error
}

// MemoryReportStore keeps reports in process memory.
type MemoryReportStore struct {
	mu      sync.RWMutex
	records map[string]database.ReportRecord
	now     func() time.Time
}

// NewMemoryReportStore returns an empty store.
func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{
		records: make(map[string]database.ReportRecord),
		now:     time.Now,
	}
}

func (s *MemoryReportStore) Save(_ context.Context, record *database.ReportRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("report record with an id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record.CreatedAt = s.now()
	s.records[record.ID] = *record
	return nil
}

func (s *MemoryReportStore) Get(_ context.Context, id string) (*database.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, database.ErrReportNotFound
	}
	return &record, nil
}

// ListByUser returns the newest reports first, capped like the Postgres store.
func (s *MemoryReportStore) ListByUser(_ context.Context, userID string, limit int) ([]database.ReportRecord, error) {
	if limit <= 0 || limit > database.DefaultListLimit {
		limit = database.DefaultListLimit
	}

	s.mu.RLock()
	records := make([]database.ReportRecord, 0)
	for _, r := range s.records {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *MemoryReportStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return database.ErrReportNotFound
	}
	delete(s.records, id)
	return nil
}

var (
	_ ReportStore = (*database.ReportRepository)(nil)
	_ ReportStore = (*MemoryReportStore)(nil)
)
