package entity

import (
	"time"
)

type Event struct {
	Base
	Name      string    `db:"name"`
	Venue     string    `db:"venue"`
	StartsAt  time.Time `db:"starts_at"`
	SeatPrice float64   `db:"seat_price"`
}
