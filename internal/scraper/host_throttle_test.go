package scraper

import (
	"context"
	"testing"
	"time"
)

func TestHostThrottle(t *testing.T) {
	throttle := NewHostThrottle(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := throttle.Wait(ctx, "https://example.com/page"); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 180*time.Millisecond {
		t.Errorf("Expected requests to one host to be spaced out, took %v", elapsed)
	}

	// other hosts have their own budget
	start = time.Now()
	if err := throttle.Wait(ctx, "https://other.example/"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("First request to a new host should not wait, took %v", elapsed)
	}
}

func TestHostThrottleDisabled(t *testing.T) {
	throttle := NewHostThrottle(0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := throttle.Wait(context.Background(), "https://example.com/"); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Zero delay should not throttle, took %v", elapsed)
	}
}

func TestHostThrottleSlowDown(t *testing.T) {
	throttle := NewHostThrottle(0)
	throttle.SlowDown("Example.com", 100*time.Millisecond)

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := throttle.Wait(ctx, "https://example.com/"); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("Expected crawl delay to apply, took %v", elapsed)
	}
}

func TestHostThrottleContextCancel(t *testing.T) {
	throttle := NewHostThrottle(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := throttle.Wait(ctx, "https://example.com/"); err != nil {
		t.Fatalf("First wait should pass: %v", err)
	}
	cancel()
	if err := throttle.Wait(ctx, "https://example.com/"); err == nil {
		t.Error("Expected error after cancel")
	}
}
