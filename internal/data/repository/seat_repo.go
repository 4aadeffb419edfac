package repository

import (
	"context"
	"fmt"

	"ticket-reservation/internal/data/entity"
	"ticket-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SeatRepository is the seat ledger: the authoritative record of each seat's
// occupancy. TryHold, Release and Finalize are conditional per-seat updates,
// so two requests racing on the same seat can never both win.
type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*entity.Seat, error)

	// FindForEvent loads the requested seats of one event and fails with
	// SeatsNotFoundError when any id is not part of the event layout.
	FindForEvent(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error)

	// TryHold grants the requested seats to reservationID where the seat is
	// currently free, and returns the ids it could not grant. Callers run it
	// inside a transaction and roll back on a non-empty denied set, so a
	// partial grant is never observable.
	TryHold(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, reservationID uuid.UUID) (denied []uuid.UUID, err error)

	// Release clears the hold only where it still belongs to reservationID
	// and the seat was not finalized. A seat re-held by a newer reservation
	// is left alone.
	Release(ctx context.Context, seatIDs []uuid.UUID, reservationID uuid.UUID) error

	// Finalize marks the seats held by reservationID as permanently
	// allocated.
	Finalize(ctx context.Context, seatIDs []uuid.UUID, reservationID uuid.UUID) error

	FindByReservation(ctx context.Context, reservationID uuid.UUID) ([]*entity.Seat, error)
}

type seatRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSeatRepository(db database.Querier, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, event_id, seat_number, seat_row, seat_column, reservation_id, finalized_at, created_at, updated_at`

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `INSERT INTO seats (id, event_id, seat_number, seat_row, seat_column, created_at, updated_at) VALUES `
	args := []interface{}{}

	for i, seat := range seats {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*7+1, i*7+2, i*7+3, i*7+4, i*7+5, i*7+6, i*7+7)

		args = append(args,
			seat.ID,
			seat.EventID,
			seat.SeatNumber,
			seat.SeatRow,
			seat.SeatColumn,
			seat.CreatedAt,
			seat.UpdatedAt,
		)
	}

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to create batch seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create batch seats: %w", err)
	}

	return nil
}

func (r *seatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	seat, err := r.scanSeat(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat by ID",
			zap.Error(err),
			zap.String("seat_id", id.String()),
		)
		return nil, fmt.Errorf("find seat by ID %s: %w", id.String(), err)
	}

	return seat, nil
}

func (r *seatRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE event_id = $1
		ORDER BY seat_row, seat_column
	`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		r.log.Error("Failed to find seats by event ID",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
		)
		return nil, fmt.Errorf("find seats by event ID %s: %w", eventID.String(), err)
	}
	defer rows.Close()

	return r.collectSeats(rows)
}

func (r *seatRepository) FindForEvent(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error) {
	if len(seatIDs) == 0 {
		return []*entity.Seat{}, nil
	}

	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE event_id = $1 AND id = ANY($2)
		ORDER BY seat_row, seat_column
	`

	rows, err := r.db.Query(ctx, query, eventID, seatIDs)
	if err != nil {
		r.log.Error("Failed to find seats for event",
			zap.Error(err),
			zap.String("event_id", eventID.String()),
			zap.Int("seat_count", len(seatIDs)),
		)
		return nil, fmt.Errorf("find seats for event %s: %w", eventID.String(), err)
	}
	defer rows.Close()

	seats, err := r.collectSeats(rows)
	if err != nil {
		return nil, err
	}

	if len(seats) < len(seatIDs) {
		found := make(map[uuid.UUID]bool, len(seats))
		for _, seat := range seats {
			found[seat.ID] = true
		}
		var missing []uuid.UUID
		for _, id := range seatIDs {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, &SeatsNotFoundError{EventID: eventID, Seats: missing}
	}

	return seats, nil
}

func (r *seatRepository) TryHold(ctx context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, reservationID uuid.UUID) ([]uuid.UUID, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}

	// Conditional per-seat update: a seat is granted only while its
	// reservation_id is null. Rows touched here stay locked until the
	// surrounding transaction commits or rolls back.
	query := `
		UPDATE seats
		SET reservation_id = $1, updated_at = NOW()
		WHERE event_id = $2 AND id = ANY($3) AND reservation_id IS NULL
	`

	result, err := r.db.Exec(ctx, query, reservationID, eventID, seatIDs)
	if err != nil {
		r.log.Error("Failed to hold seats",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
			zap.Int("seat_count", len(seatIDs)),
		)
		return nil, fmt.Errorf("hold seats for reservation %s: %w", reservationID.String(), err)
	}

	if result.RowsAffected() == int64(len(seatIDs)) {
		return nil, nil
	}

	// Name the contested seats for the conflict report.
	deniedQuery := `
		SELECT id FROM seats
		WHERE event_id = $1 AND id = ANY($2) AND reservation_id IS DISTINCT FROM $3
	`

	rows, err := r.db.Query(ctx, deniedQuery, eventID, seatIDs, reservationID)
	if err != nil {
		return nil, fmt.Errorf("find denied seats: %w", err)
	}
	defer rows.Close()

	var denied []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan denied seat: %w", err)
		}
		denied = append(denied, id)
	}

	return denied, nil
}

func (r *seatRepository) Release(ctx context.Context, seatIDs []uuid.UUID, reservationID uuid.UUID) error {
	if len(seatIDs) == 0 {
		return nil
	}

	query := `
		UPDATE seats
		SET reservation_id = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND reservation_id = $2 AND finalized_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, seatIDs, reservationID)
	if err != nil {
		r.log.Error("Failed to release seats",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
			zap.Int("seat_count", len(seatIDs)),
		)
		return fmt.Errorf("release seats for reservation %s: %w", reservationID.String(), err)
	}

	if released := result.RowsAffected(); released < int64(len(seatIDs)) {
		// Seats already released or re-held by a newer reservation; the
		// conditional update has left those alone.
		r.log.Debug("Some seats were not released",
			zap.String("reservation_id", reservationID.String()),
			zap.Int64("released", released),
			zap.Int("requested", len(seatIDs)),
		)
	}

	return nil
}

func (r *seatRepository) Finalize(ctx context.Context, seatIDs []uuid.UUID, reservationID uuid.UUID) error {
	if len(seatIDs) == 0 {
		return nil
	}

	query := `
		UPDATE seats
		SET finalized_at = NOW(), updated_at = NOW()
		WHERE id = ANY($1) AND reservation_id = $2 AND finalized_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, seatIDs, reservationID)
	if err != nil {
		r.log.Error("Failed to finalize seats",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
			zap.Int("seat_count", len(seatIDs)),
		)
		return fmt.Errorf("finalize seats for reservation %s: %w", reservationID.String(), err)
	}

	return nil
}

func (r *seatRepository) FindByReservation(ctx context.Context, reservationID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE reservation_id = $1
		ORDER BY seat_row, seat_column
	`

	rows, err := r.db.Query(ctx, query, reservationID)
	if err != nil {
		r.log.Error("Failed to find seats by reservation",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
		)
		return nil, fmt.Errorf("find seats by reservation %s: %w", reservationID.String(), err)
	}
	defer rows.Close()

	return r.collectSeats(rows)
}

func (r *seatRepository) scanSeat(row pgx.Row) (*entity.Seat, error) {
	var seat entity.Seat
	err := row.Scan(
		&seat.ID,
		&seat.EventID,
		&seat.SeatNumber,
		&seat.SeatRow,
		&seat.SeatColumn,
		&seat.ReservationID,
		&seat.FinalizedAt,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *seatRepository) collectSeats(rows pgx.Rows) ([]*entity.Seat, error) {
	var seats []*entity.Seat
	for rows.Next() {
		seat, err := r.scanSeat(rows)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, seat)
	}
	return seats, nil
}
