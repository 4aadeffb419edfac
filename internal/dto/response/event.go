package response

import (
	"time"

	"ticket-reservation/internal/data/entity"
)

type EventResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	StartsAt  time.Time `json:"starts_at"`
	SeatPrice float64   `json:"seat_price"`
	CreatedAt time.Time `json:"created_at"`
}

type SeatResponse struct {
	ID         string `json:"id"`
	SeatNumber string `json:"seat_number"`
	SeatRow    string `json:"seat_row"`
	SeatColumn int    `json:"seat_column"`
	Available  bool   `json:"available"`
	Sold       bool   `json:"sold"`
}

func EventToResponse(event *entity.Event) *EventResponse {
	return &EventResponse{
		ID:        event.ID.String(),
		Name:      event.Name,
		Venue:     event.Venue,
		StartsAt:  event.StartsAt,
		SeatPrice: event.SeatPrice,
		CreatedAt: event.CreatedAt,
	}
}

func SeatToResponse(seat *entity.Seat) SeatResponse {
	return SeatResponse{
		ID:         seat.ID.String(),
		SeatNumber: seat.SeatNumber,
		SeatRow:    seat.SeatRow,
		SeatColumn: seat.SeatColumn,
		Available:  seat.Available(),
		Sold:       seat.FinalizedAt != nil,
	}
}
