package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/usecase"
	"github.com/transit-aggregator/internal/worker/scheduler"
)

func startScheduler(t *testing.T, s *scheduler.Scheduler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool {
		return !errors.Is(s.Trigger(context.Background(), "missing"), scheduler.ErrNotRunning)
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_TriggerWhileRunningIsSkipped(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32

	s := scheduler.New(2, zap.NewNop())
	require.NoError(t, s.Register(scheduler.Job{
		ID: "metro:sync-lines",
		Run: func(ctx context.Context) error {
			runs.Add(1)
			<-release
			return nil
		},
	}))
	startScheduler(t, s)

	require.NoError(t, s.Trigger(context.Background(), "metro:sync-lines"))
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	err := s.Trigger(context.Background(), "metro:sync-lines")
	assert.ErrorIs(t, err, scheduler.ErrJobRunning)

	close(release)
	require.Eventually(t, func() bool { return !s.Running("metro:sync-lines") }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Trigger(context.Background(), "metro:sync-lines"))
	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := scheduler.New(1, zap.NewNop())
	startScheduler(t, s)

	err := s.Trigger(context.Background(), "ghost:sync-lines")
	assert.ErrorIs(t, err, scheduler.ErrUnknownJob)
}

func TestScheduler_TriggerBeforeStart(t *testing.T) {
	s := scheduler.New(1, zap.NewNop())
	require.NoError(t, s.Register(scheduler.Job{ID: "a", Run: func(context.Context) error { return nil }}))

	assert.ErrorIs(t, s.Trigger(context.Background(), "a"), scheduler.ErrNotRunning)
}

func TestScheduler_RegisterValidation(t *testing.T) {
	s := scheduler.New(1, zap.NewNop())
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Register(scheduler.Job{ID: "a", Run: noop}))
	assert.Error(t, s.Register(scheduler.Job{ID: "a", Run: noop}))
	assert.Error(t, s.Register(scheduler.Job{ID: "", Run: noop}))
	assert.Error(t, s.Register(scheduler.Job{ID: "b"}))
	assert.Equal(t, []string{"a"}, s.Jobs())
}

func TestScheduler_RunOnStartAndInterval(t *testing.T) {
	var onStart, periodic atomic.Int32

	s := scheduler.New(2, zap.NewNop())
	require.NoError(t, s.Register(scheduler.Job{
		ID:         "once",
		Interval:   time.Hour,
		RunOnStart: true,
		Run: func(context.Context) error {
			onStart.Add(1)
			return nil
		},
	}))
	require.NoError(t, s.Register(scheduler.Job{
		ID:       "tick",
		Interval: 10 * time.Millisecond,
		Run: func(context.Context) error {
			periodic.Add(1)
			return nil
		},
	}))
	startScheduler(t, s)

	require.Eventually(t, func() bool { return onStart.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return periodic.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), onStart.Load())
}

func TestScheduler_IntervalRunsNeverOverlap(t *testing.T) {
	var active, peak, runs atomic.Int32

	s := scheduler.New(4, zap.NewNop())
	require.NoError(t, s.Register(scheduler.Job{
		ID:       "bus:sync-stations",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			active.Add(-1)
			runs.Add(1)
			return nil
		},
	}))
	startScheduler(t, s)

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), peak.Load())
}

func TestScheduler_PoolBoundsConcurrency(t *testing.T) {
	release := make(chan struct{})
	var active, peak, done atomic.Int32

	job := func(ctx context.Context) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		active.Add(-1)
		done.Add(1)
		return nil
	}

	s := scheduler.New(1, zap.NewNop())
	require.NoError(t, s.Register(scheduler.Job{ID: "a", Run: job}))
	require.NoError(t, s.Register(scheduler.Job{ID: "b", Run: job}))
	startScheduler(t, s)

	require.NoError(t, s.Trigger(context.Background(), "a"))
	require.NoError(t, s.Trigger(context.Background(), "b"))
	require.Eventually(t, func() bool { return active.Load() == 1 }, time.Second, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return done.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), peak.Load())
}

func TestScheduler_PanicIsContained(t *testing.T) {
	var after atomic.Int32

	s := scheduler.New(1, zap.NewNop())
	require.NoError(t, s.Register(scheduler.Job{ID: "boom", Run: func(context.Context) error { panic("provider exploded") }}))
	require.NoError(t, s.Register(scheduler.Job{ID: "ok", Run: func(context.Context) error {
		after.Add(1)
		return nil
	}}))
	startScheduler(t, s)

	require.NoError(t, s.Trigger(context.Background(), "boom"))
	require.Eventually(t, func() bool { return !s.Running("boom") }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Trigger(context.Background(), "ok"))
	require.Eventually(t, func() bool { return after.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_ManualTriggerKeepsActor(t *testing.T) {
	actors := make(chan string, 2)

	s := scheduler.New(1, zap.NewNop())
	require.NoError(t, s.Register(scheduler.Job{ID: "a", Run: func(ctx context.Context) error {
		actors <- audit.ActorFrom(ctx)
		return nil
	}}))
	startScheduler(t, s)

	require.NoError(t, s.Trigger(audit.WithActor(context.Background(), "admin"), "a"))
	assert.Equal(t, "admin", <-actors)

	require.Eventually(t, func() bool { return !s.Running("a") }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Trigger(context.Background(), "a"))
	assert.Equal(t, "scheduler", <-actors)
}

type syncerStub struct {
	mode     domain.TransportType
	entities chan domain.SyncEntity
}

func (s syncerStub) Mode() domain.TransportType { return s.mode }

func (s syncerStub) Sync(_ context.Context, entity domain.SyncEntity) (domain.SyncResult, error) {
	s.entities <- entity
	return domain.SyncResult{Entity: entity}, nil
}

func TestSyncJobs(t *testing.T) {
	metro := syncerStub{mode: domain.TransportTypeMetro, entities: make(chan domain.SyncEntity, 2)}
	jobs := scheduler.SyncJobs(metro, time.Hour, true)

	require.Len(t, jobs, 2)
	assert.Equal(t, "metro:sync-lines", jobs[0].ID)
	assert.Equal(t, "metro:sync-stations", jobs[1].ID)
	assert.True(t, jobs[0].RunOnStart)

	require.NoError(t, jobs[1].Run(context.Background()))
	assert.Equal(t, domain.SyncEntityStations, <-metro.entities)

	bicing := syncerStub{mode: domain.TransportTypeBicing, entities: make(chan domain.SyncEntity, 1)}
	jobs = scheduler.SyncJobs(bicing, time.Hour, false)
	require.Len(t, jobs, 1)
	assert.Equal(t, "bicing:sync-stations", jobs[0].ID)
}

type notifierStub struct{ calls atomic.Int32 }

func (n *notifierStub) CheckNewAlerts(context.Context) (usecase.NotifyResult, error) {
	n.calls.Add(1)
	return usecase.NotifyResult{}, nil
}

func TestNotifyJob(t *testing.T) {
	n := &notifierStub{}
	job := scheduler.NotifyJob(n, time.Minute)

	assert.Equal(t, scheduler.NotifyJobID, job.ID)
	assert.Equal(t, time.Minute, job.Interval)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int32(1), n.calls.Load())
}
