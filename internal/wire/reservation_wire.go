package wire

import (
	"ticket-reservation/internal/adaptor"
	"ticket-reservation/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	paymentHandler *adaptor.PaymentHandler,
	log *zap.Logger,
) {
	// Caller-facing routes need an identity from the upstream auth service.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(log))

		// POST /api/reservations - hold seats and create a reservation
		r.Post("/api/reservations", reservationHandler.CreateReservation)

		// GET /api/user/reservations - caller's reservation history
		r.Get("/api/user/reservations", reservationHandler.GetUserReservations)
	})

	// Lifecycle routes are keyed by reservation id alone; confirm/cancel
	// are also driven by the payment collaborator.
	r.Get("/api/reservations/{id}", reservationHandler.GetReservation)
	r.Post("/api/reservations/{id}/confirm", reservationHandler.ConfirmReservation)
	r.Post("/api/reservations/{id}/cancel", reservationHandler.CancelReservation)

	// POST /api/payments/callback - async outcome from the payment service
	r.Post("/api/payments/callback", paymentHandler.Callback)
}
