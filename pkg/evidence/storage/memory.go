package storage

import (
	"cmp"
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"mercator-hq/courier/pkg/evidence"
)

// MemoryStorage implements evidence.Storage in memory. Records are lost
// when the process exits.
type MemoryStorage struct {
	records map[string]*evidence.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.Record),
	}
}

// Store persists a copy of the record.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.records[record.ID] = &recordCopy

	return nil
}

// Get returns a copy of the record with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*evidence.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, evidence.ErrNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

// Query returns sorted, paginated copies of the matching records.
func (s *MemoryStorage) Query(ctx context.Context, q *evidence.Query) ([]*evidence.Record, error) {
	s.mu.RLock()
	results := []*evidence.Record{}
	for _, record := range s.records {
		if matchesQuery(record, q) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortRecords(results, q.SortBy, strings.EqualFold(q.SortOrder, "asc"))

	start := q.Offset
	if start > len(results) {
		return []*evidence.Record{}, nil
	}
	results = results[start:]

	if q.Limit > 0 && q.Limit < len(results) {
		results = results[:q.Limit]
	}

	return results, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, q *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, q) {
			count++
		}
	}

	return count, nil
}

// Delete removes the matching records.
func (s *MemoryStorage) Delete(ctx context.Context, q *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, q) {
			delete(s.records, id)
			deleted++
		}
	}

	return deleted, nil
}

// Close drops every record.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*evidence.Record)
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// matchesQuery mirrors buildWhereClause for in-memory records.
func matchesQuery(record *evidence.Record, q *evidence.Query) bool {
	if q.StartTime != nil && record.RequestTime.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && record.RequestTime.After(*q.EndTime) {
		return false
	}
	if q.Model != "" && record.Model != q.Model {
		return false
	}
	if q.Provider != "" && record.Provider != q.Provider {
		return false
	}
	if q.Status != "" && record.Status != q.Status {
		return false
	}
	if q.RequestID != "" && record.RequestID != q.RequestID {
		return false
	}
	if len(q.IDs) > 0 && !slices.Contains(q.IDs, record.ID) {
		return false
	}
	if q.MinCost != nil && record.Cost < *q.MinCost {
		return false
	}
	if q.MinTokens != nil && record.TotalTokens < *q.MinTokens {
		return false
	}

	return true
}

// sortRecords orders records by the query sort field, newest first by
// default. ID breaks ties.
func sortRecords(records []*evidence.Record, sortBy string, ascending bool) {
	byField := func(a, b *evidence.Record) int {
		switch sortBy {
		case "cost":
			return cmp.Compare(a.Cost, b.Cost)
		case "total_tokens":
			return cmp.Compare(a.TotalTokens, b.TotalTokens)
		case "latency":
			return cmp.Compare(a.Latency, b.Latency)
		default:
			return a.RequestTime.Compare(b.RequestTime)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		c := byField(records[i], records[j])
		if c == 0 {
			c = strings.Compare(records[i].ID, records[j].ID)
		}
		if ascending {
			return c < 0
		}
		return c > 0
	})
}

var _ evidence.Storage = (*MemoryStorage)(nil)
