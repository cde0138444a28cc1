package maintenance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockRetentionStore implements RetentionStore for testing.
type mockRetentionStore struct {
	mu           sync.Mutex
	calls        int
	lastCutoff   time.Time
	deletedCount int64
	err          error
}

func (m *mockRetentionStore) DeleteWidgetEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastCutoff = cutoff
	if m.err != nil {
		return 0, m.err
	}
	return m.deletedCount, nil
}

func (m *mockRetentionStore) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type purgeCounter struct {
	total atomic.Int64
}

func (p *purgeCounter) RecordPurged(n int64) { p.total.Add(n) }

func TestRetentionScheduler_StartStop(t *testing.T) {
	store := &mockRetentionStore{}
	s := NewRetentionScheduler(store, 30, zerolog.Nop())

	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error starting scheduler: %v", err)
	}
	if !s.running {
		t.Error("expected scheduler to be running after Start()")
	}

	// Starting again should return an error
	if err := s.Start(); err == nil {
		t.Error("expected error when starting already-running scheduler")
	}

	<-s.Stop().Done()
	if s.running {
		t.Error("expected scheduler to not be running after Stop()")
	}
}

func TestRetentionScheduler_InvalidDays(t *testing.T) {
	s := NewRetentionScheduler(&mockRetentionStore{}, 0, zerolog.Nop())
	if err := s.Start(); err == nil {
		t.Fatal("expected error for zero retention days")
	}
}

func TestRetentionScheduler_StopWhenNotRunning(t *testing.T) {
	s := NewRetentionScheduler(&mockRetentionStore{}, 30, zerolog.Nop())

	ctx := s.Stop()
	if ctx == nil {
		t.Fatal("expected non-nil context from Stop()")
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("expected done context when scheduler was not running")
	}
}

func TestRetentionScheduler_RunNow(t *testing.T) {
	store := &mockRetentionStore{deletedCount: 42}
	counter := &purgeCounter{}
	s := NewRetentionScheduler(store, 90, zerolog.Nop())
	s.SetRecorder(counter)
	s.now = func() time.Time { return time.Date(2026, 6, 30, 3, 0, 0, 0, time.UTC) }

	deleted, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 42 {
		t.Errorf("expected 42 deleted, got %d", deleted)
	}

	want := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)
	if !store.lastCutoff.Equal(want) {
		t.Errorf("expected cutoff %s, got %s", want, store.lastCutoff)
	}
	if counter.total.Load() != 42 {
		t.Errorf("expected recorder total 42, got %d", counter.total.Load())
	}
}

func TestRetentionScheduler_RunNow_Error(t *testing.T) {
	store := &mockRetentionStore{err: errors.New("db connection lost")}
	counter := &purgeCounter{}
	s := NewRetentionScheduler(store, 90, zerolog.Nop())
	s.SetRecorder(counter)

	if _, err := s.RunNow(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if counter.total.Load() != 0 {
		t.Errorf("expected nothing recorded on error, got %d", counter.total.Load())
	}

	// The cron entry point logs instead of returning.
	s.runCleanup()
	if store.getCalls() != 2 {
		t.Errorf("expected 2 calls, got %d", store.getCalls())
	}
}

func TestRetentionScheduler_CustomRetentionDays(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		days int
		want time.Time
	}{
		{"7 days", 7, time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)},
		{"30 days", 30, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"365 days", 365, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRetentionScheduler(&mockRetentionStore{}, tt.days, zerolog.Nop())
			s.now = func() time.Time { return now }

			if got := s.Cutoff(); !got.Equal(tt.want) {
				t.Errorf("expected cutoff %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRetentionScheduler_ConcurrentRunNow(t *testing.T) {
	store := &mockRetentionStore{deletedCount: 5}
	s := NewRetentionScheduler(store, 90, zerolog.Nop())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RunNow(context.Background())
		}()
	}
	wg.Wait()

	if store.getCalls() != 10 {
		t.Errorf("expected 10 calls, got %d", store.getCalls())
	}
}
