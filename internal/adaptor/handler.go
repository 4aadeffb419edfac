package adaptor

import (
	"errors"
	"strings"

	"net/http"

	"ticket-reservation/internal/data/repository"
	"ticket-reservation/internal/usecase"
	"ticket-reservation/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Event       *EventHandler
	Reservation *ReservationHandler
	Payment     *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Event:       NewEventHandler(service.Event, log),
		Reservation: NewReservationHandler(service.Reservation, log),
		Payment:     NewPaymentHandler(service.Reservation, log),
	}
}

// writeServiceError maps the service error taxonomy onto HTTP responses.
// Conflicts carry the detail the caller needs to act: the denied seats, or
// the state the reservation is actually in.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var seatsNotFound *repository.SeatsNotFoundError
	var seatConflict *repository.SeatConflictError
	var stateConflict *repository.StateConflictError

	switch {
	case errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrEventNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &seatsNotFound):
		log.Warn(operation+" failed - unknown seats", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &seatConflict):
		log.Warn(operation+" failed - seats unavailable",
			zap.Error(err),
			zap.Int("denied_count", len(seatConflict.Seats)))
		utils.ResponseConflict(w, "Some seats are unavailable", map[string]any{
			"denied_seats": seatConflict.Seats,
		})

	case errors.As(err, &stateConflict):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), map[string]any{
			"current_status": stateConflict.Current,
		})

	case errors.Is(err, repository.ErrTimeout):
		log.Warn(operation+" timed out", zap.Error(err))
		utils.ResponseRetryLater(w, "Storage busy, retry the request")

	case strings.Contains(err.Error(), "validation failed"),
		strings.Contains(err.Error(), "invalid"):
		log.Warn(operation+" failed - bad input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
