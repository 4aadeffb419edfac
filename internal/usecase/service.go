package usecase

import (
	"ticket-reservation/internal/data/repository"
	"ticket-reservation/internal/queue"
	"ticket-reservation/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Event       EventService
	Reservation ReservationService
}

func NewService(repo *repository.Repository, config *utils.Config, events queue.Publisher, log *zap.Logger) *Service {
	return &Service{
		Event:       NewEventService(repo, log),
		Reservation: NewReservationService(repo, config, events, log),
	}
}
