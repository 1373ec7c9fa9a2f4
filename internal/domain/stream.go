package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamTripQuoted = "stream:trip:quoted"
)

// QuoteEvent - событие о рассчитанной стоимости поездки для аналитики
type QuoteEvent struct {
	EventID     uuid.UUID `json:"event_id"`
	SessionID   string    `json:"session_id"`
	DepartureID string    `json:"departure_id"`
	ArrivalID   string    `json:"arrival_id"`
	Quote       FareQuote `json:"quote"`
	DistanceM   float64   `json:"distance_m"`
	DurationS   float64   `json:"duration_s"`
	ViewPath    []string  `json:"view_path"`
	QuotedAt    time.Time `json:"quoted_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
