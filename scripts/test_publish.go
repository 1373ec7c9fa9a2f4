// +build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/trip-planner/internal/domain"
)

// Публикует тестовую котировку в stream:trip:quoted для проверки quote-recorder
func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	sessionID := flag.String("session", "manual-test", "Session ID to put into the event")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Central Pier 7 -> Star Ferry Pier
	event := domain.QuoteEvent{
		EventID:     uuid.New(),
		SessionID:   *sessionID,
		DepartureID: "central-pier",
		ArrivalID:   "star-ferry-tst",
		Quote: domain.FareQuote{
			OurFare:          65,
			TaxiFareEstimate: 78,
			DistanceKm:       "12.4 km",
			EstTime:          "18 min",
			IsPeak:           true,
		},
		DistanceM: 12400,
		DurationS: 1080,
		ViewPath:  []string{"City", "District", "Station", "Station", "Drive"},
		QuotedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamTripQuoted,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Published event %s as message %s\n", event.EventID, result)
}
