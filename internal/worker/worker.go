package worker

import (
	"context"
)

// Worker - долгоживущий фоновый процесс воркера (планировщик, consumer стрима).
type Worker interface {
	// Start блокируется до Stop или отмены ctx
	Start(ctx context.Context) error

	// Stop сигнализирует о завершении; повторный вызов безопасен
	Stop() error

	Name() string
}
