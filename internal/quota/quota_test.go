package quota

import (
	"sync"
	"testing"
	"time"
)

func TestReserveRespectsCap(t *testing.T) {
	tr := New(2, 1)
	if !tr.Reserve(KindRetweet) || !tr.Reserve(KindRetweet) {
		t.Fatal("expected two retweet reservations")
	}
	if tr.Reserve(KindRetweet) {
		t.Fatal("expected retweet cap to hold")
	}
	if !tr.Reserve(KindFavorite) {
		t.Fatal("expected favorite reservation")
	}
	if tr.Reserve(KindFavorite) {
		t.Fatal("expected favorite cap to hold")
	}
}

func TestZeroCapMeansUnlimited(t *testing.T) {
	tr := New(0, 0)
	for i := 0; i < 100; i++ {
		if !tr.Reserve(KindRetweet) {
			t.Fatal("zero cap should never block")
		}
	}
}

func TestReleaseUndoesReservation(t *testing.T) {
	tr := New(1, 1)
	if !tr.Reserve(KindRetweet) {
		t.Fatal("reserve failed")
	}
	tr.Release(KindRetweet)
	if !tr.Reserve(KindRetweet) {
		t.Fatal("expected released slot to be reusable")
	}
	rts, _ := tr.Counts()
	if rts != 1 {
		t.Fatalf("expected 1 retweet, got %d", rts)
	}
}

func TestDayRolloverResetsBothCounters(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 50, 0, 0, time.UTC)
	tr := New(5, 5)
	tr.now = func() time.Time { return now }
	tr.day = tr.today()

	tr.Reserve(KindRetweet)
	tr.Reserve(KindFavorite)
	rts, likes := tr.Counts()
	if rts != 1 || likes != 1 {
		t.Fatalf("expected 1/1, got %d/%d", rts, likes)
	}

	// Same day: no reset.
	now = now.Add(5 * time.Minute)
	rts, likes = tr.Counts()
	if rts != 1 || likes != 1 {
		t.Fatalf("same-day counts changed: %d/%d", rts, likes)
	}

	// Day boundary crossed: both reset together.
	now = now.Add(10 * time.Minute)
	rts, likes = tr.Counts()
	if rts != 0 || likes != 0 {
		t.Fatalf("expected reset to 0/0, got %d/%d", rts, likes)
	}
}

func TestRolloverAppliesBeforeEligibility(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	tr := New(1, 1)
	tr.now = func() time.Time { return now }
	tr.day = tr.today()

	if !tr.Reserve(KindRetweet) {
		t.Fatal("reserve failed")
	}
	if tr.Reserve(KindRetweet) {
		t.Fatal("cap should be spent")
	}
	now = now.Add(2 * time.Minute) // new UTC day
	if !tr.Reserve(KindRetweet) {
		t.Fatal("first reservation of the new day must see clean counters")
	}
}

func TestConcurrentReservationsNeverOvershoot(t *testing.T) {
	const limit = 10
	tr := New(limit, 0)
	var wg sync.WaitGroup
	granted := make(chan struct{}, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Reserve(KindRetweet) {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)
	n := 0
	for range granted {
		n++
	}
	if n != limit {
		t.Fatalf("expected exactly %d grants, got %d", limit, n)
	}
	rts, _ := tr.Counts()
	if rts != limit {
		t.Fatalf("expected counter %d, got %d", limit, rts)
	}
}
