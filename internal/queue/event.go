package queue

import (
	"time"
)

// Routing keys for terminal reservation transitions. Consumers bind to the
// ones they care about; user messaging listens to all three.
const (
	RoutingKeyConfirmed = "reservation.confirmed"
	RoutingKeyCancelled = "reservation.cancelled"
	RoutingKeyExpired   = "reservation.expired"
)

// ReservationEvent is the payload published on every terminal transition.
// Delivery is fire-and-forget: the reservation core never depends on a
// consumer having seen it.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	EventID       string    `json:"event_id"`
	SeatIDs       []string  `json:"seat_ids"`
	TotalAmount   float64   `json:"total_amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}
