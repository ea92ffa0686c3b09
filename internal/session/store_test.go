package session

import (
	"sync"
	"testing"

	"github.com/prepdeck/coach-engine/internal/signals"
)

func TestGetCreatesSession(t *testing.T) {
	s := NewStore(4)
	if s.Has("s1") {
		t.Fatal("session should not exist yet")
	}

	st := s.Get("s1")
	if st.ID != "s1" {
		t.Fatalf("expected id s1, got %s", st.ID)
	}
	if st.CurrentStateID != "" {
		t.Fatalf("fresh session should have no state, got %s", st.CurrentStateID)
	}
	if st.History == nil || st.History.Cap() != 4 {
		t.Fatal("history ring not initialized with configured capacity")
	}
	if !s.Has("s1") {
		t.Fatal("Get should create the session")
	}
}

func TestMutatePersistsChanges(t *testing.T) {
	s := NewStore(4)
	s.Mutate("s1", func(st *State) {
		st.CurrentStateID = "steady"
	})
	if got := s.Get("s1").CurrentStateID; got != "steady" {
		t.Fatalf("expected steady, got %s", got)
	}
}

func TestRemove(t *testing.T) {
	s := NewStore(4)
	s.Get("s1")
	s.Remove("s1")
	if s.Has("s1") {
		t.Fatal("session should be gone")
	}
	s.Remove("never-existed") // no-op
}

func TestHistoryRingEviction(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(signals.MetricVector{FillerRatio: float64(i)})
	}
	if h.Len() != 3 {
		t.Fatalf("history must never exceed capacity, got %d", h.Len())
	}
	items := h.Items()
	// Oldest two evicted; 2, 3, 4 remain oldest-first.
	for i, want := range []float64{2, 3, 4} {
		if items[i].FillerRatio != want {
			t.Fatalf("item %d: expected %f, got %f", i, want, items[i].FillerRatio)
		}
	}
}

func TestHistoryMinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Append(signals.MetricVector{})
	if h.Cap() != 1 || h.Len() != 1 {
		t.Fatalf("expected cap 1 len 1, got cap %d len %d", h.Cap(), h.Len())
	}
}

func TestSnapshotDoesNotCreate(t *testing.T) {
	s := NewStore(4)
	if _, ok := s.Snapshot("s1"); ok {
		t.Fatal("snapshot of unknown session should report ok=false")
	}
	if s.Has("s1") {
		t.Fatal("snapshot must not create the session")
	}

	s.Mutate("s1", func(st *State) {
		st.CurrentStateID = "steady"
		st.History.Append(signals.MetricVector{})
	})
	snap, ok := s.Snapshot("s1")
	if !ok {
		t.Fatal("snapshot of existing session should report ok=true")
	}
	if snap.ID != "s1" || snap.CurrentStateID != "steady" || snap.HistoryLen != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSnapshotConcurrentWithMutate(t *testing.T) {
	s := NewStore(4)
	s.Get("s1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			s.Mutate("s1", func(st *State) {
				st.History.Append(signals.MetricVector{})
			})
		}
	}()

	for alive := true; alive; {
		select {
		case <-done:
			alive = false
		default:
		}
		snap, ok := s.Snapshot("s1")
		if !ok {
			t.Fatal("session disappeared")
		}
		if snap.HistoryLen < 0 || snap.HistoryLen > 4 {
			t.Fatalf("history length outside ring bounds: %d", snap.HistoryLen)
		}
	}
}

func TestConcurrentMutateDistinctSessions(t *testing.T) {
	s := NewStore(4)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%8))
			for j := 0; j < 100; j++ {
				s.Mutate(id, func(st *State) {
					st.History.Append(signals.MetricVector{})
				})
			}
		}(i)
	}
	wg.Wait()
	if s.Len() != 8 {
		t.Fatalf("expected 8 sessions, got %d", s.Len())
	}
}
