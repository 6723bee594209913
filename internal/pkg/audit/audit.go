// Package audit пишет аудит-записи для операций записи (синхронизации,
// регистрация алертов, уведомления, admin-запросы). Поля перечисляются явно
// для каждой операции.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomePartial Outcome = "partial"
)

const SystemActor = "system"

type actorKey struct{}

// WithActor кладёт в контекст инициатора операции (scheduler, admin, ...).
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom возвращает инициатора или SystemActor.
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}

type Event struct {
	Operation string
	Mode      string
	Outcome   Outcome
	Counts    map[string]int
	Duration  time.Duration
	Err       error
}

type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("audit")}
}

// Record пишет одну аудит-запись. Nil Recorder - no-op.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if r == nil {
		return
	}
	fields := []zap.Field{
		zap.String("operation", e.Operation),
		zap.String("actor", ActorFrom(ctx)),
		zap.String("outcome", string(e.Outcome)),
	}
	if e.Mode != "" {
		fields = append(fields, zap.String("mode", e.Mode))
	}
	for k, v := range e.Counts {
		fields = append(fields, zap.Int(k, v))
	}
	if e.Duration > 0 {
		fields = append(fields, zap.Duration("duration", e.Duration))
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}

	if e.Outcome == OutcomeFailure {
		r.logger.Warn("audit", fields...)
		return
	}
	r.logger.Info("audit", fields...)
}
