package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewCronScheduler("every monday", nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNextHonoursTimezone(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	c, err := NewCronScheduler("0 6 * * 1", loc)
	if err != nil {
		t.Fatalf("NewCronScheduler: %v", err)
	}

	// Wednesday 12 Nov 2025, 12:00 UTC
	next := c.Next(time.Date(2025, time.November, 12, 12, 0, 0, 0, time.UTC))
	want := time.Date(2025, time.November, 17, 6, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("Next = %v, want %v", next, want)
	}
}

func TestStartRunsJobAndStops(t *testing.T) {
	t.Parallel()

	c, err := NewCronScheduler("0 6 * * *", nil)
	if err != nil {
		t.Fatalf("NewCronScheduler: %v", err)
	}

	fire := make(chan time.Time)
	c.after = func(time.Duration) <-chan time.Time { return fire }

	var (
		mu    sync.Mutex
		fired []time.Time
	)
	ran := make(chan struct{}, 4)
	job := func(at time.Time) {
		mu.Lock()
		fired = append(fired, at)
		mu.Unlock()
		ran <- struct{}{}
	}

	ctx := context.Background()
	if err := c.Start(ctx, job); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(ctx, job); err == nil {
		t.Fatalf("expected second Start to fail")
	}

	fire <- time.Now()
	<-ran
	fire <- time.Now()
	<-ran

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := c.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(fired))
	}
	for _, at := range fired {
		if at.Hour() != 6 || at.Minute() != 0 {
			t.Fatalf("job received unexpected activation time %v", at)
		}
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	c, err := NewCronScheduler("@daily", nil)
	if err != nil {
		t.Fatalf("NewCronScheduler: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
