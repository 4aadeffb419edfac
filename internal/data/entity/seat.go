package entity

import (
	"time"

	"github.com/google/uuid"
)

// Seat is one sellable place in an event layout. ReservationID is a lookup
// back-reference to the reservation currently holding or owning the seat; it
// is non-null only while that reservation is pending or confirmed. A seat with
// FinalizedAt set belongs to a confirmed reservation and is never released.
type Seat struct {
	Base
	EventID       uuid.UUID  `db:"event_id"`
	SeatNumber    string     `db:"seat_number"` // A1, A2, B1, etc.
	SeatRow       string     `db:"seat_row"`
	SeatColumn    int        `db:"seat_column"`
	ReservationID *uuid.UUID `db:"reservation_id"`
	FinalizedAt   *time.Time `db:"finalized_at"`
}

// Available reports whether the seat can be granted to a new hold.
func (s *Seat) Available() bool {
	return s.ReservationID == nil
}
