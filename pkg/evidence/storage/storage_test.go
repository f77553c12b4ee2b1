package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/evidence"
)

// backends runs fn against every storage implementation.
func backends(t *testing.T, fn func(t *testing.T, s evidence.Storage)) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStorage()
		defer s.Close()
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStorage(&SQLiteConfig{
			Path:    filepath.Join(t.TempDir(), "evidence.db"),
			WALMode: true,
		})
		if err != nil {
			t.Fatalf("NewSQLiteStorage() failed: %v", err)
		}
		defer s.Close()
		fn(t, s)
	})
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testRecord(id string, offset time.Duration) *evidence.Record {
	return &evidence.Record{
		ID:               id,
		RequestID:        "req-" + id,
		RequestTime:      base.Add(offset),
		ResponseTime:     base.Add(offset + 250*time.Millisecond),
		Latency:          250 * time.Millisecond,
		Provider:         "openai",
		BaseURL:          "http://api.openai.com/v1",
		Proxy:            "http://localhost:8080",
		Model:            "gpt-3.5-turbo",
		Messages:         1,
		UserPrompt:       "Hello, you are amazing.",
		RequestHash:      "abc",
		Status:           evidence.StatusSuccess,
		HTTPStatus:       200,
		ResponseModel:    "gpt-3.5-turbo-0125",
		ResponseContent:  "Thank you!",
		FinishReason:     "stop",
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
		Cost:             0.000035,
	}
}

func seed(t *testing.T, s evidence.Storage, records ...*evidence.Record) {
	t.Helper()
	for _, r := range records {
		if err := s.Store(context.Background(), r); err != nil {
			t.Fatalf("Store(%s) failed: %v", r.ID, err)
		}
	}
}

func ids(records []*evidence.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStorage_StoreAndGet(t *testing.T) {
	backends(t, func(t *testing.T, s evidence.Storage) {
		ctx := context.Background()

		record := testRecord("r1", 0)
		record.Error = ""
		record.RequestBody = `{"model":"gpt-3.5-turbo"}`
		record.TokensEstimated = true
		seed(t, s, record)

		got, err := s.Get(ctx, "r1")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}

		if !got.RequestTime.Equal(record.RequestTime) {
			t.Errorf("request time: got %v, want %v", got.RequestTime, record.RequestTime)
		}
		if got.Latency != record.Latency {
			t.Errorf("latency: got %v, want %v", got.Latency, record.Latency)
		}
		if got.Cost != record.Cost {
			t.Errorf("cost: got %v, want %v", got.Cost, record.Cost)
		}
		if got.RequestBody != record.RequestBody {
			t.Errorf("request body: got %q", got.RequestBody)
		}
		if !got.TokensEstimated {
			t.Error("tokens_estimated lost")
		}
		if got.ResponseModel != "gpt-3.5-turbo-0125" || got.HTTPStatus != 200 {
			t.Errorf("response fields lost: %+v", got)
		}

		if _, err := s.Get(ctx, "missing"); !errors.Is(err, evidence.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStorage_QueryFiltersAndOrder(t *testing.T) {
	backends(t, func(t *testing.T, s evidence.Storage) {
		ctx := context.Background()

		failed := testRecord("r2", time.Minute)
		failed.Status = evidence.StatusError
		failed.Error = "proxy unreachable"
		failed.ErrorType = "proxy"
		failed.TotalTokens = 0
		failed.Cost = 0

		big := testRecord("r3", 2*time.Minute)
		big.Model = "gpt-4o"
		big.TotalTokens = 500
		big.Cost = 0.01

		seed(t, s, testRecord("r1", 0), failed, big)

		start := base.Add(30 * time.Second)
		minCost := 0.001
		minTokens := 30

		tests := []struct {
			name  string
			query *evidence.Query
			want  []string
		}{
			{"all newest first", &evidence.Query{}, []string{"r3", "r2", "r1"}},
			{"ascending", &evidence.Query{SortOrder: "asc"}, []string{"r1", "r2", "r3"}},
			{"by cost", &evidence.Query{SortBy: "cost", SortOrder: "desc"}, []string{"r3", "r1", "r2"}},
			{"status error", &evidence.Query{Status: evidence.StatusError}, []string{"r2"}},
			{"model", &evidence.Query{Model: "gpt-4o"}, []string{"r3"}},
			{"request id", &evidence.Query{RequestID: "req-r1"}, []string{"r1"}},
			{"ids", &evidence.Query{IDs: []string{"r1", "r3", "missing"}}, []string{"r3", "r1"}},
			{"start time", &evidence.Query{StartTime: &start}, []string{"r3", "r2"}},
			{"min cost", &evidence.Query{MinCost: &minCost}, []string{"r3"}},
			{"min tokens", &evidence.Query{MinTokens: &minTokens}, []string{"r3", "r1"}},
			{"limit", &evidence.Query{Limit: 2}, []string{"r3", "r2"}},
			{"offset", &evidence.Query{Limit: 2, Offset: 2}, []string{"r1"}},
			{"offset only", &evidence.Query{Offset: 1}, []string{"r2", "r1"}},
			{"no match", &evidence.Query{Model: "llama3"}, []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.Query(ctx, tt.query)
				if err != nil {
					t.Fatalf("Query() failed: %v", err)
				}
				if !equalIDs(ids(got), tt.want) {
					t.Errorf("got %v, want %v", ids(got), tt.want)
				}
			})
		}
	})
}

func TestStorage_CountAndDelete(t *testing.T) {
	backends(t, func(t *testing.T, s evidence.Storage) {
		ctx := context.Background()
		seed(t, s, testRecord("r1", 0), testRecord("r2", time.Hour), testRecord("r3", 2*time.Hour))

		count, err := s.Count(ctx, &evidence.Query{})
		if err != nil {
			t.Fatalf("Count() failed: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 records, got %d", count)
		}

		cutoff := base.Add(time.Hour)
		deleted, err := s.Delete(ctx, &evidence.Query{EndTime: &cutoff})
		if err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if deleted != 2 {
			t.Errorf("expected 2 deleted, got %d", deleted)
		}

		remaining, _ := s.Query(ctx, &evidence.Query{})
		if !equalIDs(ids(remaining), []string{"r3"}) {
			t.Errorf("unexpected remaining records %v", ids(remaining))
		}

		deleted, err = s.Delete(ctx, &evidence.Query{IDs: []string{"r3", "r1"}})
		if err != nil {
			t.Fatalf("Delete() by IDs failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("expected 1 deleted by IDs, got %d", deleted)
		}
	})
}

func TestStorage_DuplicateID(t *testing.T) {
	s, err := NewSQLiteStorage(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "evidence.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer s.Close()

	seed(t, s, testRecord("r1", 0))

	err = s.Store(context.Background(), testRecord("r1", time.Minute))
	var storageErr *evidence.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if storageErr.Operation != "store" {
		t.Errorf("expected store operation, got %q", storageErr.Operation)
	}
}

func TestSQLiteStorage_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "evidence.db")

	s, err := NewSQLiteStorage(&SQLiteConfig{Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	seed(t, s, testRecord("r1", 0))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s, err = NewSQLiteStorage(&SQLiteConfig{Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if _, err := s.Get(context.Background(), "r1"); err != nil {
		t.Errorf("record lost after reopen: %v", err)
	}
}

func TestSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage(&SQLiteConfig{})
	var storageErr *evidence.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.EvidenceConfig{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("expected MemoryStorage, got %T", s)
	}
	s.Close()

	s, err = Open(config.EvidenceConfig{
		Path:        filepath.Join(t.TempDir(), "evidence.db"),
		BusyTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStorage); !ok {
		t.Errorf("expected SQLiteStorage, got %T", s)
	}
}
