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
	"github.com/transit-aggregator/internal/pkg/metrics"
)

// NotifyResult - итог одного прохода CheckNewAlerts.
type NotifyResult struct {
	Alerts     int
	Users      int
	Sent       int
	Duplicates int
	Failed     int
}

// NotificationUseCase сопоставляет свежие алерты с избранным пользователей
// и публикует уведомления в стрим. Маркер (user, alert) ставится до публикации,
// поэтому доставка не более одного раза.
type NotificationUseCase struct {
	alerts     ActiveAlertsProvider
	userRepo   repository.UserRepository
	streamRepo repository.StreamRepository
	modes      []domain.TransportType
	audit      *audit.Recorder
	logger     *zap.Logger
	now        func() time.Time
}

func NewNotificationUseCase(
	alerts ActiveAlertsProvider,
	userRepo repository.UserRepository,
	streamRepo repository.StreamRepository,
	modes []domain.TransportType,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *NotificationUseCase {
	return &NotificationUseCase{
		alerts:     alerts,
		userRepo:   userRepo,
		streamRepo: streamRepo,
		modes:      modes,
		audit:      recorder,
		logger:     logger.Named("notifications"),
		now:        time.Now,
	}
}

// CheckNewAlerts - один проход по всем режимам.
func (uc *NotificationUseCase) CheckNewAlerts(ctx context.Context) (NotifyResult, error) {
	start := uc.now()
	var result NotifyResult

	// 1. Свежие активные алерты всех режимов
	now := uc.now()
	var recent []domain.Alert
	for _, mode := range uc.modes {
		for _, a := range uc.alerts.ActiveAlerts(ctx, mode) {
			if a.IsActive(now) && a.IsRecent(now) {
				recent = append(recent, a)
			}
		}
	}
	result.Alerts = len(recent)
	if len(recent) == 0 {
		uc.logger.Debug("No recent alerts")
		return result, nil
	}

	// 2. Пользователи с избранным
	users, err := uc.userRepo.GetUsersWithFavorites(ctx)
	if err != nil {
		uc.audit.Record(ctx, audit.Event{Operation: "alerts.notify", Outcome: audit.OutcomeFailure, Err: err})
		return result, fmt.Errorf("get users with favorites: %w", err)
	}
	result.Users = len(users)

	// 3. Сопоставление и доставка
	for _, user := range users {
		for i := range recent {
			alert := &recent[i]
			fav, ok := firstRelevant(alert, user.Favorites)
			if !ok {
				continue
			}
			uc.notify(ctx, user, alert, fav, &result)
		}
	}

	outcome := audit.OutcomeSuccess
	if result.Failed > 0 {
		outcome = audit.OutcomePartial
	}
	uc.audit.Record(ctx, audit.Event{
		Operation: "alerts.notify",
		Outcome:   outcome,
		Counts: map[string]int{
			"alerts":     result.Alerts,
			"users":      result.Users,
			"sent":       result.Sent,
			"duplicates": result.Duplicates,
			"failed":     result.Failed,
		},
		Duration: uc.now().Sub(start),
	})
	uc.logger.Info("Alert notifications processed",
		zap.Int("alerts", result.Alerts),
		zap.Int("users", result.Users),
		zap.Int("sent", result.Sent),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed))
	return result, nil
}

func firstRelevant(alert *domain.Alert, favorites []domain.Favorite) (domain.Favorite, bool) {
	for _, f := range favorites {
		if alert.IsRelevantTo(f) {
			return f, true
		}
	}
	return domain.Favorite{}, false
}

func (uc *NotificationUseCase) notify(ctx context.Context, user domain.UserFavorites, alert *domain.Alert, fav domain.Favorite, result *NotifyResult) {
	mode := string(alert.TransportType)
	log := uc.logger.With(zap.Int64("user_id", user.UserID), zap.String("alert_id", alert.ID))

	sent, err := uc.userRepo.HasNotificationBeenSent(ctx, user.UserID, alert.ID)
	if err != nil {
		result.Failed++
		metrics.RecordNotification(mode, "failed")
		log.Warn("Failed to check notification log", zap.Error(err))
		return
	}
	if sent {
		result.Duplicates++
		metrics.RecordNotification(mode, "duplicate")
		return
	}

	// Атомарный захват: параллельный проход мог успеть раньше
	claimed, err := uc.userRepo.LogNotificationSent(ctx, user.UserID, alert.ID)
	if err != nil {
		result.Failed++
		metrics.RecordNotification(mode, "failed")
		log.Warn("Failed to claim notification", zap.Error(err))
		return
	}
	if !claimed {
		result.Duplicates++
		metrics.RecordNotification(mode, "duplicate")
		return
	}

	pub, _ := alert.PublicationFor(user.Language)
	event := domain.AlertNotificationEvent{
		EventID:       uuid.New(),
		UserID:        user.UserID,
		AlertID:       alert.ID,
		TransportType: alert.TransportType,
		StationCode:   fav.StationCode,
		LineCode:      fav.LineCode,
		StationName:   fav.StationName,
		Language:      user.Language,
		Title:         pub.Title,
		Body:          pub.Body,
		CreatedAt:     uc.now().UTC(),
	}
	if _, err := uc.streamRepo.PublishToStream(ctx, domain.StreamNotifications, event); err != nil {
		result.Failed++
		metrics.RecordNotification(mode, "failed")
		log.Error("Failed to publish notification", zap.Error(err))
		return
	}

	result.Sent++
	metrics.RecordNotification(mode, "sent")
}
