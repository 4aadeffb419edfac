// Package repository error types shared across repositories and surfaced to
// the usecase layer. Sentinel values cover the simple cases; typed errors
// carry the detail callers need to act (which seats were denied, which state
// the reservation is actually in).
package repository

import (
	"errors"
	"fmt"
	"strings"

	"ticket-reservation/internal/data/entity"

	"github.com/google/uuid"
)

// ErrReservationNotFound is returned when a reservation id is unknown.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrEventNotFound is returned when an event id is unknown.
var ErrEventNotFound = errors.New("event not found")

// ErrDuplicateIdempotencyKey is returned when an insert hits the unique
// index on reservations.idempotency_key. Callers resolve it by re-reading
// the reservation recorded under the same key.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already recorded")

// ErrTimeout is returned when a storage operation exceeded its deadline.
// The operation is retryable.
var ErrTimeout = errors.New("storage operation timed out")

// SeatsNotFoundError reports seat ids that do not exist in the event layout.
type SeatsNotFoundError struct {
	EventID uuid.UUID
	Seats   []uuid.UUID
}

func (e *SeatsNotFoundError) Error() string {
	return fmt.Sprintf("seats not found in event %s: %s", e.EventID, joinIDs(e.Seats))
}

// SeatConflictError reports seats that were requested but already held by
// another reservation.
type SeatConflictError struct {
	Seats []uuid.UUID
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", joinIDs(e.Seats))
}

// StateConflictError reports a transition attempted from an incompatible
// reservation state.
type StateConflictError struct {
	Current entity.ReservationStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("reservation is %s, transition not allowed", e.Current)
}

func joinIDs(ids []uuid.UUID) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strings.Join(strs, ", ")
}
