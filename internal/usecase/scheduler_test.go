package usecase

import (
	"context"
	"testing"
	"time"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipelineOnTrigger(t *testing.T) {
	t.Parallel()

	f := newFixture(recent("a", "AI", time.Hour))
	driver := &manualDriver{}
	sched := NewScheduler(driver, f.pipeline(), RunOptions{FetchOnly: true}, nil)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if driver.job == nil {
		t.Fatalf("job not registered")
	}

	driver.job(pipelineNow)
	if f.source.calls != 1 || f.writer.digest != "" {
		t.Fatalf("expected a fetch-only run, calls=%d digest=%q", f.source.calls, f.writer.digest)
	}

	if err := sched.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("Stop = %v, stopped=%v", err, driver.stopped)
	}
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	sched := NewScheduler(nil, nil, RunOptions{}, nil)
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
