package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/domain/repository"
	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/pkg/errors"
	"github.com/transit-aggregator/internal/usecase/dto"
)

// SyncRequestUseCase публикует admin-запросы синхронизации в стрим для воркера.
type SyncRequestUseCase struct {
	streamRepo repository.StreamRepository
	audit      *audit.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

func NewSyncRequestUseCase(streamRepo repository.StreamRepository, recorder *audit.Recorder, logger *zap.Logger) *SyncRequestUseCase {
	return &SyncRequestUseCase{
		streamRepo: streamRepo,
		audit:      recorder,
		logger:     logger,
		now:        time.Now,
	}
}

func (uc *SyncRequestUseCase) RequestSync(ctx context.Context, req dto.SyncRequest, requestedBy string) (*dto.SyncRequestResponse, error) {
	mode, err := domain.ParseTransportType(req.Mode)
	if err != nil {
		return nil, errors.ErrInvalidTransportType
	}
	entity, err := domain.ParseSyncEntity(req.Entity)
	if err != nil {
		return nil, errors.ErrInvalidSyncEntity
	}
	if entity == domain.SyncEntityLines && !mode.HasLines() {
		return nil, errors.ErrInvalidSyncEntity.WithDetails(map[string]interface{}{
			"reason": fmt.Sprintf("%s has no lines", mode),
		})
	}

	now := uc.now().UTC()
	event := domain.SyncRequestEvent{
		RequestID:   uuid.New(),
		Mode:        string(mode),
		Entity:      string(entity),
		RequestedBy: requestedBy,
		RequestedAt: &now,
	}
	jobID := domain.SyncJobID(mode, entity)

	ctx = audit.WithActor(ctx, requestedBy)
	msgID, err := uc.streamRepo.PublishToStream(ctx, domain.StreamSyncRequests, event)
	if err != nil {
		uc.audit.Record(ctx, audit.Event{Operation: "sync.request", Mode: string(mode), Outcome: audit.OutcomeFailure, Err: err})
		uc.logger.Error("Failed to publish sync request", zap.String("job", jobID), zap.Error(err))
		return nil, errors.ErrStreamError
	}

	uc.audit.Record(ctx, audit.Event{Operation: "sync.request", Mode: string(mode), Outcome: audit.OutcomeSuccess})
	uc.logger.Info("Sync request published",
		zap.String("job", jobID),
		zap.String("request_id", event.RequestID.String()),
		zap.String("message_id", msgID))

	return &dto.SyncRequestResponse{
		RequestID: event.RequestID.String(),
		JobID:     jobID,
		MessageID: msgID,
	}, nil
}
