//go:build ignore

// Публикует запрос синхронизации в stream:transit:sync и следит за
// stream:transit:notifications. Для ручной проверки worker'а:
//
//	go run scripts/test_publish.go -mode metro -entity lines
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	syncStream   = "stream:transit:sync"
	notifyStream = "stream:transit:notifications"
)

type syncRequestEvent struct {
	RequestID   uuid.UUID `json:"request_id"`
	Mode        string    `json:"mode"`
	Entity      string    `json:"entity"`
	RequestedBy string    `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6380", "Redis address for streams")
	mode := flag.String("mode", "metro", "metro, bus, tram, rodalies, fgc, bicing")
	entity := flag.String("entity", "lines", "lines или stations")
	watch := flag.Duration("watch", 30*time.Second, "сколько ждать уведомлений, 0 - не ждать")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := syncRequestEvent{
		RequestID:   uuid.New(),
		Mode:        *mode,
		Entity:      *entity,
		RequestedBy: "test_publish",
		RequestedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: syncStream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Sync request published\n")
	fmt.Printf("   Stream: %s\n", syncStream)
	fmt.Printf("   Message ID: %s\n", id)
	fmt.Printf("   Job: %s:sync-%s\n", *mode, *entity)

	if *watch == 0 {
		return
	}

	fmt.Printf("\nWatching %s for %s...\n", notifyStream, *watch)
	deadline := time.Now().Add(*watch)
	lastID := "$"
	for time.Now().Before(deadline) {
		results, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{notifyStream, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Printf("XREAD failed: %v", err)
			}
			continue
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				raw, _ := msg.Values["data"].(string)
				var notification map[string]interface{}
				if err := json.Unmarshal([]byte(raw), &notification); err != nil {
					continue
				}
				pretty, _ := json.MarshalIndent(notification, "", "  ")
				fmt.Printf("%s\n", pretty)
			}
		}
	}
}
