package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"ArticlesDigest/internal/ports"
)

// CronScheduler fires a job at every instant matched by a cron expression,
// evaluated in a fixed time zone. Jobs never overlap.
type CronScheduler struct {
	expr *cronexpr.Expression
	loc  *time.Location

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler parses spec; a nil loc means UTC.
func NewCronScheduler(spec string, loc *time.Location) (*CronScheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{
		expr:  expr,
		loc:   loc,
		now:   time.Now,
		after: time.After,
	}, nil
}

// Next returns the first activation strictly after from.
func (c *CronScheduler) Next(from time.Time) time.Time {
	return c.expr.Next(from.In(c.loc))
}

// Start launches the scheduling loop. It returns immediately; the loop ends
// when ctx is cancelled or Stop is called.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return errors.New("cron job is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return errors.New("scheduler already started")
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop, c.done = stop, done

	go func() {
		defer close(done)
		for {
			next := c.Next(c.now())
			if next.IsZero() {
				return
			}
			select {
			case <-c.after(next.Sub(c.now())):
				job(next)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the loop and waits for a running job to finish or ctx to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
