package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/usecase"
)

// memUserRepository - журнал уведомлений с атомарным захватом, как ON CONFLICT DO NOTHING.
type memUserRepository struct {
	mu    sync.Mutex
	users []domain.UserFavorites
	sent  map[string]struct{}
	err   error
}

func newMemUserRepository(users ...domain.UserFavorites) *memUserRepository {
	return &memUserRepository{users: users, sent: make(map[string]struct{})}
}

func (r *memUserRepository) GetUsersWithFavorites(context.Context) ([]domain.UserFavorites, error) {
	return r.users, r.err
}

func (r *memUserRepository) HasNotificationBeenSent(_ context.Context, userID int64, alertID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sent[fmt.Sprintf("%d|%s", userID, alertID)]
	return ok, nil
}

func (r *memUserRepository) LogNotificationSent(_ context.Context, userID int64, alertID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%d|%s", userID, alertID)
	if _, ok := r.sent[key]; ok {
		return false, nil
	}
	r.sent[key] = struct{}{}
	return true, nil
}

type recordingStream struct {
	mu     sync.Mutex
	events []domain.AlertNotificationEvent
	err    error
}

func (s *recordingStream) CreateConsumerGroup(context.Context, string, string) error { return nil }

func (s *recordingStream) ConsumeBatch(context.Context, string, string, string, int64, time.Duration) ([]domain.StreamMessage, error) {
	return nil, nil
}

func (s *recordingStream) AckMessages(context.Context, string, string, ...string) error { return nil }

func (s *recordingStream) PublishToStream(_ context.Context, stream string, data interface{}) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stream == domain.StreamNotifications {
		s.events = append(s.events, data.(domain.AlertNotificationEvent))
	}
	return fmt.Sprintf("%d-0", len(s.events)), nil
}

func recentAlert(mode domain.TransportType, id string, entity domain.AffectedEntity) domain.Alert {
	return domain.Alert{
		ID:               string(mode) + "-" + id,
		ExternalID:       id,
		TransportType:    mode,
		BeginDate:        time.Now().Add(-2 * time.Hour),
		Publications:     []domain.Publication{{Language: "ca", Title: "Avís", Body: "Cos"}, {Language: "es", Title: "Aviso", Body: "Cuerpo"}},
		AffectedEntities: []domain.AffectedEntity{entity},
	}
}

func TestNotificationUseCase_CheckNewAlerts(t *testing.T) {
	old := recentAlert(domain.TransportTypeMetro, "old", domain.AffectedEntity{LineCode: "1"})
	old.BeginDate = time.Now().Add(-48 * time.Hour)

	alerts := staticAlerts{
		domain.TransportTypeMetro: {
			recentAlert(domain.TransportTypeMetro, "1", domain.AffectedEntity{LineCode: "1", LineName: "L1"}),
			old,
		},
		domain.TransportTypeBus: {
			recentAlert(domain.TransportTypeBus, "7", domain.AffectedEntity{StationCode: "1278"}),
		},
	}
	users := newMemUserRepository(
		domain.UserFavorites{UserID: 1, Language: "es", Favorites: []domain.Favorite{
			{TransportType: domain.TransportTypeMetro, StationCode: "126", LineCode: "1", StationName: "Catalunya"},
		}},
		domain.UserFavorites{UserID: 2, Language: "en", Favorites: []domain.Favorite{
			{TransportType: domain.TransportTypeBus, StationCode: "1278"},
			{TransportType: domain.TransportTypeMetro, StationCode: "999"},
		}},
	)
	stream := &recordingStream{}
	uc := usecase.NewNotificationUseCase(alerts, users, stream,
		[]domain.TransportType{domain.TransportTypeMetro, domain.TransportTypeBus}, nil, zap.NewNop())

	result, err := uc.CheckNewAlerts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Alerts)
	assert.Equal(t, 2, result.Users)
	assert.Equal(t, 2, result.Sent)
	require.Len(t, stream.events, 2)

	first := stream.events[0]
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, "metro-1", first.AlertID)
	assert.Equal(t, "Aviso", first.Title)
	assert.Equal(t, "Catalunya", first.StationName)

	second := stream.events[1]
	assert.Equal(t, int64(2), second.UserID)
	assert.Equal(t, "bus-7", second.AlertID)
	// нет публикации на en - первая
	assert.Equal(t, "Avís", second.Title)

	// повторный проход ничего не отправляет
	again, err := uc.CheckNewAlerts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Sent)
	assert.Equal(t, 2, again.Duplicates)
	assert.Len(t, stream.events, 2)
}

func TestNotificationUseCase_ConcurrentRunsDeliverOnce(t *testing.T) {
	alerts := staticAlerts{domain.TransportTypeMetro: {
		recentAlert(domain.TransportTypeMetro, "1", domain.AffectedEntity{LineCode: "1"}),
		recentAlert(domain.TransportTypeMetro, "2", domain.AffectedEntity{StationCode: "126"}),
	}}
	var favs []domain.UserFavorites
	for id := int64(1); id <= 20; id++ {
		favs = append(favs, domain.UserFavorites{UserID: id, Language: "ca", Favorites: []domain.Favorite{
			{TransportType: domain.TransportTypeMetro, StationCode: "126", LineCode: "1"},
		}})
	}
	users := newMemUserRepository(favs...)
	stream := &recordingStream{}
	uc := usecase.NewNotificationUseCase(alerts, users, stream, []domain.TransportType{domain.TransportTypeMetro}, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.CheckNewAlerts(context.Background())
		}()
	}
	wg.Wait()

	require.Len(t, stream.events, 40)
	seen := make(map[string]int)
	for _, e := range stream.events {
		seen[fmt.Sprintf("%d|%s", e.UserID, e.AlertID)]++
	}
	assert.Len(t, seen, 40)
	for key, n := range seen {
		assert.Equal(t, 1, n, key)
	}
}

func TestNotificationUseCase_NoRecentAlertsSkipsUsers(t *testing.T) {
	users := newMemUserRepository()
	users.err = errors.New("must not be called")
	uc := usecase.NewNotificationUseCase(staticAlerts{}, users, &recordingStream{},
		[]domain.TransportType{domain.TransportTypeMetro}, nil, zap.NewNop())

	result, err := uc.CheckNewAlerts(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Alerts)
}

func TestNotificationUseCase_UsersError(t *testing.T) {
	alerts := staticAlerts{domain.TransportTypeMetro: {recentAlert(domain.TransportTypeMetro, "1", domain.AffectedEntity{LineCode: "1"})}}
	users := newMemUserRepository()
	users.err = errors.New("users db down")
	uc := usecase.NewNotificationUseCase(alerts, users, &recordingStream{},
		[]domain.TransportType{domain.TransportTypeMetro}, nil, zap.NewNop())

	_, err := uc.CheckNewAlerts(context.Background())

	assert.Error(t, err)
}

func TestNotificationUseCase_PublishFailureCountsFailed(t *testing.T) {
	alerts := staticAlerts{domain.TransportTypeMetro: {recentAlert(domain.TransportTypeMetro, "1", domain.AffectedEntity{LineCode: "1"})}}
	users := newMemUserRepository(domain.UserFavorites{UserID: 5, Favorites: []domain.Favorite{
		{TransportType: domain.TransportTypeMetro, LineCode: "1"},
	}})
	stream := &recordingStream{err: errors.New("redis down")}
	uc := usecase.NewNotificationUseCase(alerts, users, stream, []domain.TransportType{domain.TransportTypeMetro}, nil, zap.NewNop())

	result, err := uc.CheckNewAlerts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Sent)
}
