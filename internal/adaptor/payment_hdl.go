package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-reservation/internal/dto/request"
	"ticket-reservation/internal/usecase"
	"ticket-reservation/pkg/utils"

	"go.uber.org/zap"
)

// PaymentHandler receives the asynchronous outcome signals from the payment
// collaborator. Payment capture itself happens elsewhere; this boundary only
// turns "succeeded" into a confirm and "failed" into a cancel.
type PaymentHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.ReservationService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Callback handles POST /api/payments/callback
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req request.PaymentCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	h.log.Info("Payment callback received",
		zap.String("reservation_id", req.ReservationID),
		zap.String("status", req.Status),
	)

	var err error
	var reservation any
	if req.Status == "succeeded" {
		reservation, err = h.service.ConfirmReservation(r.Context(), req.ReservationID)
	} else {
		reservation, err = h.service.CancelReservation(r.Context(), req.ReservationID)
	}
	if err != nil {
		writeServiceError(w, h.log, err, "process payment callback")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}
