package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	apperrors "github.com/transit-aggregator/internal/pkg/errors"
	"github.com/transit-aggregator/internal/usecase"
	"github.com/transit-aggregator/internal/usecase/dto"
)

func dtoSync(mode, entity string) dto.SyncRequest {
	return dto.SyncRequest{Mode: mode, Entity: entity}
}

func TestSyncRequestUseCase_RequestSync(t *testing.T) {
	ctx := context.Background()
	stream := new(MockStreamRepository)
	stream.On("PublishToStream", mock.Anything, domain.StreamSyncRequests, mock.MatchedBy(func(e domain.SyncRequestEvent) bool {
		return e.Mode == "metro" && e.Entity == "stations" && e.RequestedBy == "admin"
	})).Return("1700000000000-0", nil)
	uc := usecase.NewSyncRequestUseCase(stream, nil, zap.NewNop())

	resp, err := uc.RequestSync(ctx, dtoSync("metro", "stations"), "admin")

	require.NoError(t, err)
	assert.Equal(t, "metro:sync-stations", resp.JobID)
	assert.Equal(t, "1700000000000-0", resp.MessageID)
	assert.NotEmpty(t, resp.RequestID)
	stream.AssertExpectations(t)
}

func TestSyncRequestUseCase_Validation(t *testing.T) {
	stream := new(MockStreamRepository)
	uc := usecase.NewSyncRequestUseCase(stream, nil, zap.NewNop())
	ctx := context.Background()

	_, err := uc.RequestSync(ctx, dtoSync("ferry", "lines"), "admin")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransportType)

	_, err = uc.RequestSync(ctx, dtoSync("metro", "routes"), "admin")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSyncEntity)

	_, err = uc.RequestSync(ctx, dtoSync("bicing", "lines"), "admin")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSyncEntity)

	stream.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncRequestUseCase_PublishError(t *testing.T) {
	stream := new(MockStreamRepository)
	stream.On("PublishToStream", mock.Anything, domain.StreamSyncRequests, mock.Anything).Return("", errors.New("redis down"))
	uc := usecase.NewSyncRequestUseCase(stream, nil, zap.NewNop())

	_, err := uc.RequestSync(context.Background(), dtoSync("bus", "lines"), "admin")

	assert.ErrorIs(t, err, apperrors.ErrStreamError)
}
