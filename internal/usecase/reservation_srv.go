package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-reservation/internal/data/entity"
	"ticket-reservation/internal/data/repository"
	"ticket-reservation/internal/dto/request"
	"ticket-reservation/internal/dto/response"
	"ticket-reservation/internal/queue"
	"ticket-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationService drives the reservation lifecycle: acquire seats and
// persist the reservation as one atomic unit, then move it through exactly
// one terminal transition (confirmed, cancelled or expired).
type ReservationService interface {
	CreateReservation(ctx context.Context, userID string, req *request.CreateReservationRequest) (*response.ReservationResponse, error)
	GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error)
	GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error)

	ConfirmReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error)
	CancelReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error)

	// SweepExpired moves every pending reservation whose hold window
	// elapsed at or before now to expired and releases its seats, up to
	// batchSize per call. One reservation's failure never aborts the batch.
	SweepExpired(ctx context.Context, now time.Time, batchSize int) (int, error)
}

type reservationService struct {
	repo       *repository.Repository
	events     queue.Publisher
	holdWindow time.Duration
	opTimeout  time.Duration
	log        *zap.Logger
}

func NewReservationService(repo *repository.Repository, config *utils.Config, events queue.Publisher, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:       repo,
		events:     events,
		holdWindow: config.Reservation.HoldWindow,
		opTimeout:  config.Reservation.OpTimeout,
		log:        log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, userID string, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create reservation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid event ID format %s: %w", req.EventID, err)
	}

	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	// Catalog boundary: the event must exist before any seat is touched.
	event, err := s.repo.Event.FindByID(ctx, eventID)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}
	if event == nil {
		return nil, repository.ErrEventNotFound
	}

	// Replay check: a key seen before short-circuits to the reservation
	// recorded on the first attempt, whatever state it has reached since.
	if req.IdempotencyKey != nil {
		prior, err := s.repo.Reservation.FindByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err != nil {
			return nil, s.mapStorageErr(err)
		}
		if prior != nil {
			s.log.Info("Reservation create replayed via idempotency key",
				zap.String("reservation_id", prior.ID.String()),
			)
			return s.buildResponse(ctx, prior)
		}
	}

	now := time.Now()
	reservation := &entity.Reservation{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:         userUUID,
		EventID:        eventID,
		TotalAmount:    req.TotalAmount,
		Status:         entity.ReservationStatusPending,
		ExpiresAt:      now.Add(s.holdWindow),
		IdempotencyKey: req.IdempotencyKey,
	}

	// Seat holds, reservation row and idempotency key commit or roll back
	// together; a denied seat leaves no trace.
	var heldSeats []*entity.Seat
	txCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	err = s.repo.Tx.WithinTx(txCtx, func(tr *repository.Repository) error {
		seats, err := tr.Seat.FindForEvent(txCtx, eventID, seatIDs)
		if err != nil {
			return err
		}

		denied, err := tr.Seat.TryHold(txCtx, eventID, seatIDs, reservation.ID)
		if err != nil {
			return err
		}
		if len(denied) > 0 {
			return &repository.SeatConflictError{Seats: denied}
		}

		if err := tr.Reservation.Create(txCtx, reservation); err != nil {
			return err
		}

		heldSeats = seats
		return nil
	})

	if errors.Is(err, repository.ErrDuplicateIdempotencyKey) && req.IdempotencyKey != nil {
		// Lost the insert race against a concurrent retry carrying the same
		// key; the winner's reservation is the result for both callers.
		prior, findErr := s.repo.Reservation.FindByIdempotencyKey(ctx, *req.IdempotencyKey)
		if findErr != nil {
			return nil, s.mapStorageErr(findErr)
		}
		if prior == nil {
			return nil, fmt.Errorf("idempotency key recorded but reservation missing: %w", err)
		}
		return s.buildResponse(ctx, prior)
	}
	if err != nil {
		return nil, s.mapStorageErr(err)
	}

	s.log.Info("Reservation created",
		zap.String("reservation_id", reservation.ID.String()),
		zap.String("user_id", userID),
		zap.String("event_id", req.EventID),
		zap.Int("seat_count", len(seatIDs)),
		zap.Float64("total_amount", req.TotalAmount),
		zap.Time("expires_at", reservation.ExpiresAt),
	)

	return response.ReservationToResponse(reservation, heldSeats), nil
}

func (s *reservationService) GetReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID format %s: %w", reservationID, err)
	}

	reservation, err := s.findByIDRetrying(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, repository.ErrReservationNotFound
	}

	return s.buildResponse(ctx, reservation)
}

func (s *reservationService) GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	reservations, err := s.repo.Reservation.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, s.mapStorageErr(err)
	}

	total, err := s.repo.Reservation.CountByUserID(ctx, userUUID)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}

	items := make([]response.ReservationResponse, len(reservations))
	for i, reservation := range reservations {
		resp, err := s.buildResponse(ctx, reservation)
		if err != nil {
			return nil, err
		}
		items[i] = *resp
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

func (s *reservationService) ConfirmReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID format %s: %w", reservationID, err)
	}

	// Transition and finalize commit together so a crash can never leave a
	// confirmed reservation with unfinalized seats. Finalize also runs on
	// the repeat-confirm no-op branch: it is owner-guarded and idempotent.
	var reservation *entity.Reservation
	var seats []*entity.Seat
	var applied bool
	err = s.repo.Tx.WithinTx(ctx, func(tr *repository.Repository) error {
		var txErr error
		seats, txErr = tr.Seat.FindByReservation(ctx, id)
		if txErr != nil {
			return txErr
		}

		reservation, applied, txErr = tr.Reservation.Transition(ctx, id,
			[]entity.ReservationStatus{entity.ReservationStatusPending},
			entity.ReservationStatusConfirmed,
		)
		if txErr != nil {
			return txErr
		}

		return tr.Seat.Finalize(ctx, collectSeatIDs(seats), id)
	})
	if err != nil {
		return nil, s.mapStorageErr(err)
	}

	if applied {
		s.log.Info("Reservation confirmed",
			zap.String("reservation_id", reservationID),
			zap.Int("seat_count", len(seats)),
		)
		s.publish(ctx, queue.RoutingKeyConfirmed, reservation, seats)
	}

	return response.ReservationToResponse(reservation, seats), nil
}

func (s *reservationService) CancelReservation(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID format %s: %w", reservationID, err)
	}

	// Transition and release commit together: a cancelled reservation never
	// keeps a hold. Seats are read first because the release clears their
	// back-reference.
	var reservation *entity.Reservation
	var seats []*entity.Seat
	var applied bool
	err = s.repo.Tx.WithinTx(ctx, func(tr *repository.Repository) error {
		var txErr error
		seats, txErr = tr.Seat.FindByReservation(ctx, id)
		if txErr != nil {
			return txErr
		}

		reservation, applied, txErr = tr.Reservation.Transition(ctx, id,
			[]entity.ReservationStatus{entity.ReservationStatusPending},
			entity.ReservationStatusCancelled,
		)
		if txErr != nil {
			return txErr
		}
		if !applied {
			return nil
		}

		return tr.Seat.Release(ctx, collectSeatIDs(seats), id)
	})
	if err != nil {
		return nil, s.mapStorageErr(err)
	}

	if applied {
		s.log.Info("Reservation cancelled",
			zap.String("reservation_id", reservationID),
			zap.Int("seat_count", len(seats)),
		)
		s.publish(ctx, queue.RoutingKeyCancelled, reservation, seats)
	}

	return response.ReservationToResponse(reservation, seats), nil
}

func (s *reservationService) SweepExpired(ctx context.Context, now time.Time, batchSize int) (int, error) {
	due, err := s.repo.Reservation.FindExpirable(ctx, now, batchSize)
	if err != nil {
		return 0, s.mapStorageErr(err)
	}

	expired := 0
	for _, reservation := range due {
		if err := s.expire(ctx, reservation, now); err != nil {
			var conflict *repository.StateConflictError
			if errors.As(err, &conflict) {
				// Lost the race to a concurrent confirm or cancel;
				// nothing left to release.
				s.log.Debug("Reservation no longer expirable",
					zap.String("reservation_id", reservation.ID.String()),
					zap.String("status", string(conflict.Current)),
				)
				continue
			}
			s.log.Error("Failed to expire reservation",
				zap.Error(err),
				zap.String("reservation_id", reservation.ID.String()),
			)
			continue
		}
		expired++
	}

	return expired, nil
}

// expire drives one pending reservation past its hold deadline to expired
// and releases its seats.
func (s *reservationService) expire(ctx context.Context, reservation *entity.Reservation, now time.Time) error {
	if !reservation.DueForExpiry(now) {
		return nil
	}

	// Same atomicity as cancel: either the reservation expires and its seats
	// free up together, or neither happens and the next sweep retries.
	var updated *entity.Reservation
	var seats []*entity.Seat
	var applied bool
	err := s.repo.Tx.WithinTx(ctx, func(tr *repository.Repository) error {
		var txErr error
		seats, txErr = tr.Seat.FindByReservation(ctx, reservation.ID)
		if txErr != nil {
			return txErr
		}

		updated, applied, txErr = tr.Reservation.Transition(ctx, reservation.ID,
			[]entity.ReservationStatus{entity.ReservationStatusPending},
			entity.ReservationStatusExpired,
		)
		if txErr != nil {
			return txErr
		}
		if !applied {
			return nil
		}

		return tr.Seat.Release(ctx, collectSeatIDs(seats), reservation.ID)
	})
	if err != nil {
		return s.mapStorageErr(err)
	}
	if !applied {
		return nil
	}

	s.log.Info("Reservation expired",
		zap.String("reservation_id", reservation.ID.String()),
		zap.Int("seat_count", len(seats)),
		zap.Time("expired_at", reservation.ExpiresAt),
	)
	s.publish(ctx, queue.RoutingKeyExpired, updated, seats)

	return nil
}

// ==================== HELPER METHODS ====================

// findByIDRetrying retries the read once after a short backoff when storage
// timed out; reads are idempotent so the retry is always safe.
func (s *reservationService) findByIDRetrying(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.opTimeout)
	reservation, err := s.repo.Reservation.FindByID(readCtx, id)
	cancel()
	if err == nil {
		return reservation, nil
	}
	if mapped := s.mapStorageErr(err); !errors.Is(mapped, repository.ErrTimeout) {
		return nil, mapped
	}

	time.Sleep(100 * time.Millisecond)

	readCtx, cancel = context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	reservation, err = s.repo.Reservation.FindByID(readCtx, id)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}
	return reservation, nil
}

func (s *reservationService) buildResponse(ctx context.Context, reservation *entity.Reservation) (*response.ReservationResponse, error) {
	seats, err := s.repo.Seat.FindByReservation(ctx, reservation.ID)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}
	return response.ReservationToResponse(reservation, seats), nil
}

// publish emits a terminal-transition event; failures are logged and
// swallowed because notification delivery is fire-and-forget.
func (s *reservationService) publish(ctx context.Context, eventType string, reservation *entity.Reservation, seats []*entity.Seat) {
	seatIDs := make([]string, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID.String()
	}

	event := queue.ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID.String(),
		UserID:        reservation.UserID.String(),
		EventID:       reservation.EventID.String(),
		SeatIDs:       seatIDs,
		TotalAmount:   reservation.TotalAmount,
		OccurredAt:    time.Now(),
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish reservation event",
			zap.Error(err),
			zap.String("type", eventType),
			zap.String("reservation_id", event.ReservationID),
		)
	}
}

// mapStorageErr converts a deadline overrun into the retryable timeout error
// and passes every other storage error through.
func (s *reservationService) mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return repository.ErrTimeout
	}
	return err
}

// parseSeatIDs parses and deduplicates the requested seat set, preserving
// request order.
func parseSeatIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("validation failed: SeatIDs: seat set must not be empty")
	}

	seen := make(map[uuid.UUID]bool, len(raw))
	seatIDs := make([]uuid.UUID, 0, len(raw))
	for _, seatIDStr := range raw {
		seatID, err := uuid.Parse(seatIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid seat ID format %s: %w", seatIDStr, err)
		}
		if seen[seatID] {
			continue
		}
		seen[seatID] = true
		seatIDs = append(seatIDs, seatID)
	}

	return seatIDs, nil
}

func collectSeatIDs(seats []*entity.Seat) []uuid.UUID {
	ids := make([]uuid.UUID, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID
	}
	return ids
}
