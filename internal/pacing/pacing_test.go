package pacing

import (
	"context"
	"testing"
	"time"
)

func TestSleepReturnsAfterDuration(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatal("returned too early")
	}
}

func TestSleepAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := Sleep(ctx, time.Hour)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancellation did not interrupt the sleep")
	}
}

func TestJitterBounds(t *testing.T) {
	max := 3 * time.Minute
	for i := 0; i < 1000; i++ {
		d := Jitter(max)
		if d < 10*time.Second || d > max {
			t.Fatalf("jitter %v out of [10s, %v]", d, max)
		}
	}
}

func TestJitterClampsToSmallMax(t *testing.T) {
	max := 5 * time.Second
	for i := 0; i < 100; i++ {
		if d := Jitter(max); d > max {
			t.Fatalf("jitter %v exceeds max %v", d, max)
		}
	}
}
