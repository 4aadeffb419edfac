package response

import (
	"time"

	"ticket-reservation/internal/data/entity"
)

type ReservationResponse struct {
	ID          string                   `json:"id"`
	UserID      string                   `json:"user_id"`
	EventID     string                   `json:"event_id"`
	SeatIDs     []string                 `json:"seat_ids"`
	SeatNumbers []string                 `json:"seat_numbers,omitempty"`
	TotalAmount float64                  `json:"total_amount"`
	Status      entity.ReservationStatus `json:"status"`
	ExpiresAt   time.Time                `json:"expires_at"`
	ConfirmedAt *time.Time               `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time               `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ReservationToResponse maps a reservation and its seat set to the API shape.
func ReservationToResponse(reservation *entity.Reservation, seats []*entity.Seat) *ReservationResponse {
	seatIDs := make([]string, len(seats))
	seatNumbers := make([]string, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID.String()
		seatNumbers[i] = seat.SeatNumber
	}

	return &ReservationResponse{
		ID:          reservation.ID.String(),
		UserID:      reservation.UserID.String(),
		EventID:     reservation.EventID.String(),
		SeatIDs:     seatIDs,
		SeatNumbers: seatNumbers,
		TotalAmount: reservation.TotalAmount,
		Status:      reservation.Status,
		ExpiresAt:   reservation.ExpiresAt,
		ConfirmedAt: reservation.ConfirmedAt,
		CancelledAt: reservation.CancelledAt,
		CreatedAt:   reservation.CreatedAt,
	}
}
