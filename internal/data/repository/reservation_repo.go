package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-reservation/internal/data/entity"
	"ticket-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// uniqueViolation is the Postgres error code raised when an insert hits the
// partial unique index on idempotency_key.
const uniqueViolation = "23505"

// ReservationRepository is the reservation store: the authoritative record of
// each reservation's identity, status and expiry. Transition is the guarded
// compare-and-set behind every terminal state change.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Reservation, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// Transition moves the reservation to target only when its current
	// status is in from. It returns the stored reservation and whether the
	// update was applied: (res, false, nil) means the reservation was
	// already in the target state, a no-op for idempotent retries. An
	// incompatible state yields a StateConflictError, an unknown id
	// ErrReservationNotFound.
	Transition(ctx context.Context, id uuid.UUID, from []entity.ReservationStatus, target entity.ReservationStatus) (*entity.Reservation, bool, error)

	// FindExpirable returns up to limit pending reservations whose hold
	// window elapsed at or before now, oldest expiry first.
	FindExpirable(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
}

type reservationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReservationRepository(db database.Querier, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `id, user_id, event_id, total_amount, status, expires_at, confirmed_at, cancelled_at, idempotency_key, created_at, updated_at`

func (r *reservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		reservation.ID,
		reservation.UserID,
		reservation.EventID,
		reservation.TotalAmount,
		reservation.Status,
		reservation.ExpiresAt,
		reservation.ConfirmedAt,
		reservation.CancelledAt,
		reservation.IdempotencyKey,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateIdempotencyKey
		}

		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("reservation_id", reservation.ID.String()),
			zap.String("user_id", reservation.UserID.String()),
		)
		return fmt.Errorf("create reservation %s: %w", reservation.ID.String(), err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := r.scanReservation(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return reservation, nil
}

func (r *reservationRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE idempotency_key = $1`

	reservation, err := r.scanReservation(r.db.QueryRow(ctx, query, key))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by idempotency key",
			zap.Error(err),
			zap.String("idempotency_key", key),
		)
		return nil, fmt.Errorf("find reservation by idempotency key: %w", err)
	}

	return reservation, nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reservations by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find reservations by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	return r.collectReservations(rows)
}

func (r *reservationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reservations by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count reservations by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *reservationRepository) Transition(ctx context.Context, id uuid.UUID, from []entity.ReservationStatus, target entity.ReservationStatus) (*entity.Reservation, bool, error) {
	// Expiry stamps neither column: cancelled_at records an explicit cancel,
	// and the expiry moment is already expires_at.
	var stampColumn string
	switch target {
	case entity.ReservationStatusConfirmed:
		stampColumn = "confirmed_at = NOW(),"
	case entity.ReservationStatusCancelled:
		stampColumn = "cancelled_at = NOW(),"
	}

	query := `
		UPDATE reservations
		SET status = $2, ` + stampColumn + ` updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + reservationColumns

	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	reservation, err := r.scanReservation(r.db.QueryRow(ctx, query, id, target, fromStrs))
	if err == nil {
		return reservation, true, nil
	}
	if err != pgx.ErrNoRows {
		r.log.Error("Failed to transition reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("target", string(target)),
		)
		return nil, false, fmt.Errorf("transition reservation %s to %s: %w", id.String(), string(target), err)
	}

	// The guard matched nothing: unknown id, already in the target state,
	// or an incompatible state. Re-read to tell them apart.
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, ErrReservationNotFound
	}
	if current.Status == target {
		return current, false, nil
	}

	return nil, false, &StateConflictError{Current: current.Status}
}

func (r *reservationRepository) FindExpirable(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = $1 AND expires_at <= $2
		ORDER BY expires_at ASC
		LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, entity.ReservationStatusPending, now, limit)
	if err != nil {
		r.log.Error("Failed to find expirable reservations",
			zap.Error(err),
			zap.Time("now", now),
			zap.Int("limit", limit),
		)
		return nil, fmt.Errorf("find expirable reservations: %w", err)
	}
	defer rows.Close()

	return r.collectReservations(rows)
}

func (r *reservationRepository) scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var reservation entity.Reservation
	err := row.Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.EventID,
		&reservation.TotalAmount,
		&reservation.Status,
		&reservation.ExpiresAt,
		&reservation.ConfirmedAt,
		&reservation.CancelledAt,
		&reservation.IdempotencyKey,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) collectReservations(rows pgx.Rows) ([]*entity.Reservation, error) {
	var reservations []*entity.Reservation
	for rows.Next() {
		reservation, err := r.scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}
