package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusConfirmed ||
		s == ReservationStatusCancelled ||
		s == ReservationStatusExpired
}

type Reservation struct {
	Base
	UserID         uuid.UUID         `db:"user_id"`
	EventID        uuid.UUID         `db:"event_id"`
	TotalAmount    float64           `db:"total_amount"`
	Status         ReservationStatus `db:"status"`
	ExpiresAt      time.Time         `db:"expires_at"`
	ConfirmedAt    *time.Time        `db:"confirmed_at"`
	CancelledAt    *time.Time        `db:"cancelled_at"`
	IdempotencyKey *string           `db:"idempotency_key"`
}

// DueForExpiry reports whether the hold window has elapsed while the
// reservation is still pending.
func (r *Reservation) DueForExpiry(now time.Time) bool {
	return r.Status == ReservationStatusPending && !now.Before(r.ExpiresAt)
}
