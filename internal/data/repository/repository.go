package repository

import (
	"context"
	"fmt"

	"ticket-reservation/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Event       EventRepository
	Seat        SeatRepository
	Reservation ReservationRepository

	// Tx runs a function with a Repository bound to one database
	// transaction. Returning an error rolls everything back.
	Tx TxRunner
}

// TxRunner is the transactional boundary for operations that must be
// all-or-nothing across the seat ledger and the reservation store.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(r *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepositoryWithQuerier(db, log)
	repo.Tx = &pgxTxRunner{db: db, log: log}
	return repo
}

func newRepositoryWithQuerier(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Event:       NewEventRepository(q, log),
		Seat:        NewSeatRepository(q, log),
		Reservation: NewReservationRepository(q, log),
	}
}

type pgxTxRunner struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTxRunner) WithinTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txRepo := newRepositoryWithQuerier(tx, t.log)
	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			t.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
