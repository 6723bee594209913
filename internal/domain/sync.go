package domain

import (
	"fmt"
	"time"
)

// SyncEntity - что синхронизируется.
type SyncEntity string

const (
	SyncEntityLines    SyncEntity = "lines"
	SyncEntityStations SyncEntity = "stations"
)

func ParseSyncEntity(s string) (SyncEntity, error) {
	switch SyncEntity(s) {
	case SyncEntityLines, SyncEntityStations:
		return SyncEntity(s), nil
	}
	return "", fmt.Errorf("unknown sync entity %q", s)
}

// SyncState - стадия цикла синхронизации.
type SyncState string

const (
	SyncStateIdle         SyncState = "IDLE"
	SyncStateFetching     SyncState = "FETCHING"
	SyncStateTransforming SyncState = "TRANSFORMING"
	SyncStateUpserting    SyncState = "UPSERTING"
)

type SyncResult struct {
	Mode          TransportType `json:"mode"`
	Entity        SyncEntity    `json:"entity"`
	Fetched       int           `json:"fetched"`
	Duplicates    int           `json:"duplicates"`
	Upserted      int           `json:"upserted"`
	FailedBatches int           `json:"failed_batches"`
	Duration      time.Duration `json:"duration"`
}

// SyncJobID - id задачи планировщика, "{mode}:sync-{entity}".
func SyncJobID(mode TransportType, entity SyncEntity) string {
	return string(mode) + ":sync-" + string(entity)
}
