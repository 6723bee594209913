package syncreq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/worker"
	"github.com/transit-aggregator/internal/worker/scheduler"
)

const (
	errorBackoff    = time.Second
	emptyQueueSleep = 100 * time.Millisecond
)

// JobTrigger - планировщик с точки зрения воркера запросов
type JobTrigger interface {
	Trigger(ctx context.Context, id string) error
}

// RequestWorker читает внеплановые запросы синхронизации из stream:transit:sync
// и запускает соответствующие задачи планировщика
type RequestWorker struct {
	*worker.BaseWorker
	streamRepo    repository.StreamRepository
	trigger       JobTrigger
	consumerGroup string
	consumerName  string
	batchSize     int64
	block         time.Duration
}

func NewRequestWorker(
	streamRepo repository.StreamRepository,
	trigger JobTrigger,
	cfg config.WorkerConfig,
	logger *zap.Logger,
) *RequestWorker {
	return &RequestWorker{
		BaseWorker:    worker.NewBaseWorker("sync-requests", logger),
		streamRepo:    streamRepo,
		trigger:       trigger,
		consumerGroup: cfg.ConsumerGroup,
		consumerName:  worker.ConsumerName(),
		batchSize:     cfg.BatchSize,
		block:         cfg.StreamReadTimeout,
	}
}

// Start запускает воркер
func (w *RequestWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting sync request worker",
		zap.String("consumer_group", w.consumerGroup),
		zap.String("consumer_name", w.consumerName),
		zap.Int64("batch_size", w.batchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamSyncRequests, w.consumerGroup); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.ProcessBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.sleep(ctx, errorBackoff)
				continue
			}
			if processed == 0 {
				w.sleep(ctx, emptyQueueSleep)
			}
		}
	}
}

func (w *RequestWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-w.StopChan():
	}
}

// ProcessBatch читает пачку запросов и возвращает число прочитанных сообщений.
// Каждое прочитанное сообщение подтверждается, включая битые и отклонённые.
func (w *RequestWorker) ProcessBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ConsumeBatch(ctx, domain.StreamSyncRequests,
		w.consumerGroup, w.consumerName, w.batchSize, w.block)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		w.handle(ctx, msg)
		ids = append(ids, msg.ID)
	}

	if err := w.streamRepo.AckMessages(ctx, domain.StreamSyncRequests, w.consumerGroup, ids...); err != nil {
		// сообщения останутся в PEL, повторно не запускаем
		w.Logger().Error("Failed to ack messages", zap.Error(err))
	}
	return len(messages), nil
}

func (w *RequestWorker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	var event domain.SyncRequestEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		logger.Warn("Malformed sync request, skipping", zap.Error(err))
		return
	}

	jobID, err := event.JobID()
	if err != nil {
		logger.Warn("Invalid sync request, skipping",
			zap.String("mode", event.Mode),
			zap.String("entity", event.Entity),
			zap.Error(err))
		return
	}

	actor := event.RequestedBy
	if actor == "" {
		actor = "admin"
	}
	logger = logger.With(
		zap.String("job", jobID),
		zap.String("request_id", event.RequestID.String()),
		zap.String("requested_by", actor))

	err = w.trigger.Trigger(audit.WithActor(ctx, actor), jobID)
	switch {
	case err == nil:
		logger.Info("Sync triggered")
	case errors.Is(err, scheduler.ErrJobRunning):
		logger.Info("Sync already running, request skipped")
	default:
		logger.Warn("Failed to trigger sync", zap.Error(err))
	}
}
