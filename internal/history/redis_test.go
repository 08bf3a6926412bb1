package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
)

func newTestStore(t *testing.T, maxPerSession int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisWithClient(client, 7*24*time.Hour, maxPerSession), mr
}

func TestAppendAndList(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()

	id, err := s.Append(ctx, "sess-1", domain.HistoryRecord{
		Title:        "monitoring jaringan",
		Predicted:    "Jaringan",
		ModelVersion: "1.0.0",
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id == "" {
		t.Fatal("Append returned empty record id")
	}

	records, err := s.List(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.ID != id || rec.Title != "monitoring jaringan" || rec.Predicted != "Jaringan" {
		t.Errorf("Unexpected record: %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Append did not stamp a timestamp")
	}
}

func TestListNewestFirst(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: fmt.Sprintf("judul %d", i)}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	records, err := s.List(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"judul 2", "judul 1", "judul 0"} {
		if records[i].Title != want {
			t.Errorf("Position %d: got %q, want %q", i, records[i].Title, want)
		}
	}
}

func TestAppendCapsSession(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()

	for i := 0; i < 101; i++ {
		if _, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: fmt.Sprintf("judul %d", i)}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	records, err := s.List(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 100 {
		t.Fatalf("Expected 100 records after cap, got %d", len(records))
	}
	if records[0].Title != "judul 100" {
		t.Errorf("Newest record is %q, want %q", records[0].Title, "judul 100")
	}
	// The first append fell off the index.
	for _, rec := range records {
		if rec.Title == "judul 0" {
			t.Error("Oldest record still reachable after exceeding the cap")
		}
	}
}

func TestListSkipsExpiredRecords(t *testing.T) {
	s, mr := newTestStore(t, 100)
	ctx := context.Background()

	id, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: "akan kadaluarsa"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	// Expire the record key but leave the index entry behind.
	mr.Del(recordKey("sess-1", id))

	if _, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: "masih ada"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := s.List(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].Title != "masih ada" {
		t.Errorf("Expected only the live record, got %+v", records)
	}
}

func TestRecordsExpireWithTTL(t *testing.T) {
	s, mr := newTestStore(t, 100)
	ctx := context.Background()

	if _, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: "judul"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	mr.FastForward(7*24*time.Hour + time.Minute)

	records, err := s.List(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records after TTL, got %d", len(records))
	}
}

func TestDeleteOne(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()

	id, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: "judul"})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	deleted, err := s.DeleteOne(ctx, "sess-1", id)
	if err != nil {
		t.Fatalf("DeleteOne failed: %v", err)
	}
	if !deleted {
		t.Error("Expected deleted=true for existing record")
	}

	// Deleting again is idempotent.
	deleted, err = s.DeleteOne(ctx, "sess-1", id)
	if err != nil {
		t.Fatalf("Second DeleteOne failed: %v", err)
	}
	if deleted {
		t.Error("Expected deleted=false for absent record")
	}

	records, err := s.List(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty history after delete, got %d records", len(records))
	}
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t, 100)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: fmt.Sprintf("judul %d", i)}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if _, err := s.Append(ctx, "sess-2", domain.HistoryRecord{Title: "sesi lain"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	count, err := s.Clear(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Clear deleted %d records, want 5", count)
	}

	records, err := s.List(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty history after clear, got %d records", len(records))
	}

	// Other sessions are untouched.
	other, err := s.List(ctx, "sess-2", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("Clear leaked into another session: %d records left", len(other))
	}

	// Clearing an empty session reports zero.
	count, err = s.Clear(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Clear on empty session failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 deletions on empty session, got %d", count)
	}
}

func TestHealthCheck(t *testing.T) {
	s, mr := newTestStore(t, 100)
	ctx := context.Background()

	if !s.HealthCheck(ctx) {
		t.Error("Expected healthy store")
	}

	mr.Close()
	if s.HealthCheck(ctx) {
		t.Error("Expected health check to fail after backing store shutdown")
	}
}

func TestOperationsReportUnavailable(t *testing.T) {
	s, mr := newTestStore(t, 100)
	ctx := context.Background()
	mr.Close()

	if _, err := s.Append(ctx, "sess-1", domain.HistoryRecord{Title: "judul"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Append: expected ErrUnavailable, got %v", err)
	}
	if _, err := s.List(ctx, "sess-1", 10); !errors.Is(err, ErrUnavailable) {
		t.Errorf("List: expected ErrUnavailable, got %v", err)
	}
	if _, err := s.DeleteOne(ctx, "sess-1", "id"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("DeleteOne: expected ErrUnavailable, got %v", err)
	}
	if _, err := s.Clear(ctx, "sess-1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Clear: expected ErrUnavailable, got %v", err)
	}
}
