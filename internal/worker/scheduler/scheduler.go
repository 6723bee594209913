// Package scheduler запускает периодические задачи воркера: синхронизацию
// режимов и рассылку уведомлений об алертах.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/pkg/metrics"
	"github.com/transit-aggregator/internal/worker"
)

var (
	ErrUnknownJob = errors.New("unknown job")
	ErrJobRunning = errors.New("job already running")
	ErrNotRunning = errors.New("scheduler is not running")
)

const (
	defaultPoolSize = 4
	stopTimeout     = 30 * time.Second

	// задачи без интервала стоят в расписании, но до срабатывания не доживают
	triggerOnlyInterval = 100 * 365 * 24 * time.Hour
)

// Job - задача со стабильным id. Interval <= 0 - только по Trigger.
type Job struct {
	ID         string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

type entry struct {
	job     Job
	running atomic.Bool
	handle  gocron.Job

	// actor ручного запуска, ждущего исполнения; nil - ручного запуска нет
	mu     sync.Mutex
	manual *string
}

func (e *entry) setManual(actor string) {
	e.mu.Lock()
	e.manual = &actor
	e.mu.Unlock()
}

func (e *entry) takeManual() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.manual == nil {
		return "", false
	}
	actor := *e.manual
	e.manual = nil
	return actor, true
}

// Scheduler - воркер поверх gocron. Задача не пересекается сама с собой,
// одновременно выполняется не больше poolSize задач.
type Scheduler struct {
	*worker.BaseWorker
	jobs     map[string]*entry
	poolSize int

	mu      sync.Mutex
	runCtx  context.Context
	closing bool
}

func New(poolSize int, logger *zap.Logger) *Scheduler {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	return &Scheduler{
		BaseWorker: worker.NewBaseWorker("scheduler", logger),
		jobs:       make(map[string]*entry),
		poolSize:   poolSize,
	}
}

// Register добавляет задачу. Вызывается до Start.
func (s *Scheduler) Register(job Job) error {
	if job.ID == "" || job.Run == nil {
		return fmt.Errorf("job must have id and run func")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return fmt.Errorf("register %s: scheduler already started", job.ID)
	}
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already registered", job.ID)
	}
	s.jobs[job.ID] = &entry{job: job}
	return nil
}

// Jobs - id зарегистрированных задач по алфавиту.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Running сообщает, выполняется ли задача сейчас.
func (s *Scheduler) Running(id string) bool {
	s.mu.Lock()
	e, ok := s.jobs[id]
	s.mu.Unlock()
	return ok && e.running.Load()
}

func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := s.Logger()

	s.mu.Lock()
	if s.runCtx != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	cron, err := gocron.NewScheduler(
		gocron.WithLimitConcurrentJobs(uint(s.poolSize), gocron.LimitModeWait),
		gocron.WithStopTimeout(stopTimeout),
		gocron.WithLogger(cronLogger{logger.Sugar()}),
	)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create scheduler: %w", err)
	}

	for _, e := range s.jobs {
		if err := s.schedule(cron, e); err != nil {
			s.mu.Unlock()
			_ = cron.Shutdown()
			return err
		}
	}
	s.runCtx = runCtx
	jobCount := len(s.jobs)
	s.mu.Unlock()

	cron.Start()
	logger.Info("Scheduler started", zap.Int("jobs", jobCount), zap.Int("pool", s.poolSize))

	select {
	case <-s.StopChan():
	case <-ctx.Done():
	}

	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	cancel()

	if err := cron.Shutdown(); err != nil {
		logger.Warn("Scheduler shutdown", zap.Error(err))
	}
	logger.Info("Scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) schedule(cron gocron.Scheduler, e *entry) error {
	interval := e.job.Interval
	if interval <= 0 {
		interval = triggerOnlyInterval
	}

	opts := []gocron.JobOption{
		gocron.WithName(e.job.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if e.job.RunOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	handle, err := cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.execute(e) }),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", e.job.ID, err)
	}
	e.handle = handle
	return nil
}

// Trigger запускает задачу вне расписания. Инициатор берётся из ctx (audit.WithActor),
// сама задача живёт в контексте планировщика.
func (s *Scheduler) Trigger(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.jobs[id]
	started := s.runCtx != nil && !s.closing
	s.mu.Unlock()

	if !started {
		return ErrNotRunning
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	if e.running.Load() {
		metrics.RecordJobRun(id, "skipped")
		s.Logger().Info("Job still running, trigger skipped", zap.String("job", id))
		return fmt.Errorf("%w: %s", ErrJobRunning, id)
	}

	e.setManual(audit.ActorFrom(ctx))
	if err := e.handle.RunNow(); err != nil {
		e.takeManual()
		return fmt.Errorf("trigger %s: %w", id, err)
	}
	return nil
}

// execute - тело задачи в gocron. Флаг running выставляется только здесь.
func (s *Scheduler) execute(e *entry) {
	if !e.running.CompareAndSwap(false, true) {
		metrics.RecordJobRun(e.job.ID, "skipped")
		s.Logger().Info("Job still running, run skipped", zap.String("job", e.job.ID))
		return
	}
	defer e.running.Store(false)

	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()

	trigger := "interval"
	if actor, ok := e.takeManual(); ok {
		trigger = "manual"
		ctx = audit.WithActor(ctx, actor)
	}

	if ctx.Err() != nil {
		metrics.RecordJobRun(e.job.ID, "skipped")
		return
	}
	s.run(ctx, e, trigger)
}

func (s *Scheduler) run(ctx context.Context, e *entry, trigger string) {
	id := e.job.ID
	if audit.ActorFrom(ctx) == audit.SystemActor {
		ctx = audit.WithActor(ctx, "scheduler")
	}
	log := s.Logger().With(zap.String("job", id), zap.String("trigger", trigger))
	start := time.Now()

	err := safeRun(ctx, e.job.Run)
	if err != nil {
		metrics.RecordJobRun(id, "failure")
		log.Error("Job failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	metrics.RecordJobRun(id, "success")
	log.Info("Job completed", zap.Duration("duration", time.Since(start)))
}

func safeRun(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return run(ctx)
}

// cronLogger пишет внутренние сообщения gocron в zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Debug(msg string, args ...any) { c.l.Debugw(msg, args...) }
func (c cronLogger) Info(msg string, args ...any)  { c.l.Infow(msg, args...) }
func (c cronLogger) Warn(msg string, args ...any)  { c.l.Warnw(msg, args...) }
func (c cronLogger) Error(msg string, args ...any) { c.l.Errorw(msg, args...) }
