package scheduler

import (
	"context"
	"time"

	"github.com/transit-aggregator/internal/domain"
	"github.com/transit-aggregator/internal/usecase"
)

// NotifyJobID - id задачи рассылки уведомлений.
const NotifyJobID = "alerts:notify"

// Syncer - TransportService с точки зрения планировщика.
type Syncer interface {
	Mode() domain.TransportType
	Sync(ctx context.Context, entity domain.SyncEntity) (domain.SyncResult, error)
}

type Notifier interface {
	CheckNewAlerts(ctx context.Context) (usecase.NotifyResult, error)
}

// SyncJobs - "{mode}:sync-lines" (если у режима есть линии) и "{mode}:sync-stations".
func SyncJobs(svc Syncer, interval time.Duration, runOnStart bool) []Job {
	entities := []domain.SyncEntity{domain.SyncEntityStations}
	if svc.Mode().HasLines() {
		entities = []domain.SyncEntity{domain.SyncEntityLines, domain.SyncEntityStations}
	}

	jobs := make([]Job, 0, len(entities))
	for _, entity := range entities {
		jobs = append(jobs, Job{
			ID:         domain.SyncJobID(svc.Mode(), entity),
			Interval:   interval,
			RunOnStart: runOnStart,
			Run: func(ctx context.Context) error {
				_, err := svc.Sync(ctx, entity)
				return err
			},
		})
	}
	return jobs
}

func NotifyJob(n Notifier, interval time.Duration) Job {
	return Job{
		ID:       NotifyJobID,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := n.CheckNewAlerts(ctx)
			return err
		},
	}
}
