package request

type CreateEventRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=200"`
	Venue     string  `json:"venue" validate:"required,min=1,max=200"`
	StartsAt  string  `json:"starts_at" validate:"required"` // RFC 3339
	SeatRows  int     `json:"seat_rows" validate:"required,min=1,max=26"`
	SeatCols  int     `json:"seat_cols" validate:"required,min=1,max=100"`
	SeatPrice float64 `json:"seat_price" validate:"required,gt=0"`
}
