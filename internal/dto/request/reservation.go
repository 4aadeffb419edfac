package request

type CreateReservationRequest struct {
	EventID     string   `json:"event_id" validate:"required,uuid4"`
	SeatIDs     []string `json:"seat_ids" validate:"required,min=1,dive,uuid4"`
	TotalAmount float64  `json:"total_amount" validate:"required,gt=0"`

	// IdempotencyKey makes retried creates safe: the same key always maps
	// to the reservation recorded on the first attempt.
	IdempotencyKey *string `json:"idempotency_key,omitempty" validate:"omitempty,min=8,max=128"`
}
