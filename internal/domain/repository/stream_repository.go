package repository

import (
	"context"
	"time"

	"github.com/transit-aggregator/internal/domain"
)

// StreamRepository - интерфейс для работы с Redis Streams
type StreamRepository interface {
	// CreateConsumerGroup создаёт consumer group (идемпотентно)
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeBatch читает до count сообщений, блокируясь не дольше block
	ConsumeBatch(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]domain.StreamMessage, error)

	// AckMessages подтверждает обработку сообщений
	AckMessages(ctx context.Context, stream, group string, messageIDs ...string) error

	// PublishToStream публикует сообщение в стрим, возвращает id записи
	PublishToStream(ctx context.Context, stream string, data interface{}) (string, error)
}
