package usecase

import (
	"context"
	"fmt"
	"time"

	"ticket-reservation/internal/data/entity"
	"ticket-reservation/internal/data/repository"
	"ticket-reservation/internal/dto/request"
	"ticket-reservation/internal/dto/response"
	"ticket-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventService provisions events and their seat layouts and serves the
// availability view. Full catalog management belongs to the upstream
// catalog service; this is only the surface the seat ledger needs.
type EventService interface {
	CreateEvent(ctx context.Context, req *request.CreateEventRequest) (*response.EventResponse, error)
	GetEvent(ctx context.Context, eventID string) (*response.EventResponse, error)
	ListEvents(ctx context.Context, req *request.PaginatedRequest) ([]response.EventResponse, error)
	GetEventSeats(ctx context.Context, eventID string) ([]response.SeatResponse, error)
}

type eventService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewEventService(repo *repository.Repository, log *zap.Logger) EventService {
	return &eventService{
		repo: repo,
		log:  log.With(zap.String("service", "event")),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, req *request.CreateEventRequest) (*response.EventResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create event validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("invalid starts_at format %s: %w", req.StartsAt, err)
	}

	now := time.Now()
	event := &entity.Event{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:      req.Name,
		Venue:     req.Venue,
		StartsAt:  startsAt,
		SeatPrice: req.SeatPrice,
	}

	seats := buildSeatGrid(event.ID, req.SeatRows, req.SeatCols, now)

	err = s.repo.Tx.WithinTx(ctx, func(tr *repository.Repository) error {
		if err := tr.Event.Create(ctx, event); err != nil {
			return err
		}
		return tr.Seat.CreateBatch(ctx, seats)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Event created",
		zap.String("event_id", event.ID.String()),
		zap.String("name", event.Name),
		zap.Int("seat_count", len(seats)),
	)

	return response.EventToResponse(event), nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*response.EventResponse, error) {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID format %s: %w", eventID, err)
	}

	event, err := s.repo.Event.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, repository.ErrEventNotFound
	}

	return response.EventToResponse(event), nil
}

func (s *eventService) ListEvents(ctx context.Context, req *request.PaginatedRequest) ([]response.EventResponse, error) {
	events, err := s.repo.Event.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	eventResponses := make([]response.EventResponse, len(events))
	for i, event := range events {
		eventResponses[i] = *response.EventToResponse(event)
	}

	return eventResponses, nil
}

func (s *eventService) GetEventSeats(ctx context.Context, eventID string) ([]response.SeatResponse, error) {
	id, err := uuid.Parse(eventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID format %s: %w", eventID, err)
	}

	event, err := s.repo.Event.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, repository.ErrEventNotFound
	}

	seats, err := s.repo.Seat.FindByEventID(ctx, id)
	if err != nil {
		return nil, err
	}

	seatResponses := make([]response.SeatResponse, len(seats))
	for i, seat := range seats {
		seatResponses[i] = response.SeatToResponse(seat)
	}

	return seatResponses, nil
}

// buildSeatGrid lays out rows A..Z with numbered columns.
func buildSeatGrid(eventID uuid.UUID, rows, cols int, now time.Time) []*entity.Seat {
	seats := make([]*entity.Seat, 0, rows*cols)
	for r := 0; r < rows; r++ {
		rowLabel := string(rune('A' + r))
		for c := 1; c <= cols; c++ {
			seats = append(seats, &entity.Seat{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				EventID:    eventID,
				SeatNumber: fmt.Sprintf("%s%d", rowLabel, c),
				SeatRow:    rowLabel,
				SeatColumn: c,
			})
		}
	}
	return seats
}
