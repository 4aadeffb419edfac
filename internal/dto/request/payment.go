package request

// PaymentCallbackRequest is the asynchronous signal from the payment
// collaborator. "succeeded" confirms the reservation, "failed" cancels it.
type PaymentCallbackRequest struct {
	ReservationID string `json:"reservation_id" validate:"required,uuid4"`
	Status        string `json:"status" validate:"required,oneof=succeeded failed"`
}
