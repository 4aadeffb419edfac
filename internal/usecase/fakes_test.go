package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"ticket-reservation/internal/data/entity"
	"ticket-reservation/internal/data/repository"
	"ticket-reservation/internal/queue"

	"github.com/google/uuid"
)

// In-memory stand-ins for the Postgres repositories. They reproduce the
// conditional-update semantics the SQL relies on: a hold is granted only on a
// free seat, release and finalize only touch seats still owned by the caller,
// and Transition is a guarded compare-and-set.

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*entity.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*entity.Event)}
}

func (f *fakeEventRepo) Create(_ context.Context, event *entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *event
	f.events[event.ID] = &cp
	return nil
}

func (f *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	return &cp, nil
}

func (f *fakeEventRepo) FindAll(_ context.Context, limit, offset int) ([]*entity.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []*entity.Event
	for _, event := range f.events {
		cp := *event
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	if offset >= len(events) {
		return nil, nil
	}
	events = events[offset:]
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

type fakeSeatRepo struct {
	mu    sync.Mutex
	seats map[uuid.UUID]*entity.Seat

	// One-shot failure injection for transient storage errors.
	failNextRelease  error
	failNextFinalize error
}

func newFakeSeatRepo() *fakeSeatRepo {
	return &fakeSeatRepo{seats: make(map[uuid.UUID]*entity.Seat)}
}

func (f *fakeSeatRepo) CreateBatch(_ context.Context, seats []*entity.Seat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seat := range seats {
		cp := *seat
		f.seats[seat.ID] = &cp
	}
	return nil
}

func (f *fakeSeatRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seat, ok := f.seats[id]
	if !ok {
		return nil, nil
	}
	cp := *seat
	return &cp, nil
}

func (f *fakeSeatRepo) FindByEventID(_ context.Context, eventID uuid.UUID) ([]*entity.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var seats []*entity.Seat
	for _, seat := range f.seats {
		if seat.EventID == eventID {
			cp := *seat
			seats = append(seats, &cp)
		}
	}
	sortSeats(seats)
	return seats, nil
}

func (f *fakeSeatRepo) FindForEvent(_ context.Context, eventID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var seats []*entity.Seat
	var missing []uuid.UUID
	for _, id := range seatIDs {
		seat, ok := f.seats[id]
		if !ok || seat.EventID != eventID {
			missing = append(missing, id)
			continue
		}
		cp := *seat
		seats = append(seats, &cp)
	}
	if len(missing) > 0 {
		return nil, &repository.SeatsNotFoundError{EventID: eventID, Seats: missing}
	}
	sortSeats(seats)
	return seats, nil
}

func (f *fakeSeatRepo) TryHold(_ context.Context, eventID uuid.UUID, seatIDs []uuid.UUID, reservationID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var denied []uuid.UUID
	for _, id := range seatIDs {
		seat, ok := f.seats[id]
		if !ok || seat.EventID != eventID {
			continue
		}
		if seat.ReservationID != nil && *seat.ReservationID != reservationID {
			denied = append(denied, id)
		}
	}
	if len(denied) > 0 {
		return denied, nil
	}

	for _, id := range seatIDs {
		if seat, ok := f.seats[id]; ok && seat.EventID == eventID {
			held := reservationID
			seat.ReservationID = &held
		}
	}
	return nil, nil
}

func (f *fakeSeatRepo) Release(_ context.Context, seatIDs []uuid.UUID, reservationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextRelease != nil {
		err := f.failNextRelease
		f.failNextRelease = nil
		return err
	}
	for _, id := range seatIDs {
		seat, ok := f.seats[id]
		if !ok {
			continue
		}
		if seat.ReservationID != nil && *seat.ReservationID == reservationID && seat.FinalizedAt == nil {
			seat.ReservationID = nil
		}
	}
	return nil
}

func (f *fakeSeatRepo) Finalize(_ context.Context, seatIDs []uuid.UUID, reservationID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextFinalize != nil {
		err := f.failNextFinalize
		f.failNextFinalize = nil
		return err
	}
	now := time.Now()
	for _, id := range seatIDs {
		seat, ok := f.seats[id]
		if !ok {
			continue
		}
		if seat.ReservationID != nil && *seat.ReservationID == reservationID && seat.FinalizedAt == nil {
			stamp := now
			seat.FinalizedAt = &stamp
		}
	}
	return nil
}

func (f *fakeSeatRepo) FindByReservation(_ context.Context, reservationID uuid.UUID) ([]*entity.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var seats []*entity.Seat
	for _, seat := range f.seats {
		if seat.ReservationID != nil && *seat.ReservationID == reservationID {
			cp := *seat
			seats = append(seats, &cp)
		}
	}
	sortSeats(seats)
	return seats, nil
}

func (f *fakeSeatRepo) snapshot() map[uuid.UUID]*entity.Seat {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[uuid.UUID]*entity.Seat, len(f.seats))
	for id, seat := range f.seats {
		cp := *seat
		snap[id] = &cp
	}
	return snap
}

func (f *fakeSeatRepo) restore(snap map[uuid.UUID]*entity.Seat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats = snap
}

func sortSeats(seats []*entity.Seat) {
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].SeatRow != seats[j].SeatRow {
			return seats[i].SeatRow < seats[j].SeatRow
		}
		return seats[i].SeatColumn < seats[j].SeatColumn
	})
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*entity.Reservation

	// afterFindByKey simulates a concurrent retry committing right after a
	// replay lookup came back empty.
	afterFindByKey func(key string)

	// afterFindExpirable simulates a concurrent confirm committing between
	// the sweeper's scan and its guarded transition.
	afterFindExpirable func(due []*entity.Reservation)
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{reservations: make(map[uuid.UUID]*entity.Reservation)}
}

func (f *fakeReservationRepo) Create(_ context.Context, reservation *entity.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reservation.IdempotencyKey != nil {
		for _, existing := range f.reservations {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *reservation.IdempotencyKey {
				return repository.ErrDuplicateIdempotencyKey
			}
		}
	}
	cp := *reservation
	f.reservations[reservation.ID] = &cp
	return nil
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reservation, ok := f.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *reservation
	return &cp, nil
}

func (f *fakeReservationRepo) FindByIdempotencyKey(_ context.Context, key string) (*entity.Reservation, error) {
	f.mu.Lock()
	var found *entity.Reservation
	for _, reservation := range f.reservations {
		if reservation.IdempotencyKey != nil && *reservation.IdempotencyKey == key {
			cp := *reservation
			found = &cp
			break
		}
	}
	f.mu.Unlock()

	if f.afterFindByKey != nil {
		f.afterFindByKey(key)
	}
	return found, nil
}

func (f *fakeReservationRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var reservations []*entity.Reservation
	for _, reservation := range f.reservations {
		if reservation.UserID == userID {
			cp := *reservation
			reservations = append(reservations, &cp)
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		return reservations[i].CreatedAt.After(reservations[j].CreatedAt)
	})
	if offset >= len(reservations) {
		return nil, nil
	}
	reservations = reservations[offset:]
	if len(reservations) > limit {
		reservations = reservations[:limit]
	}
	return reservations, nil
}

func (f *fakeReservationRepo) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, reservation := range f.reservations {
		if reservation.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationRepo) Transition(_ context.Context, id uuid.UUID, from []entity.ReservationStatus, target entity.ReservationStatus) (*entity.Reservation, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reservation, ok := f.reservations[id]
	if !ok {
		return nil, false, repository.ErrReservationNotFound
	}

	for _, status := range from {
		if reservation.Status == status {
			now := time.Now()
			reservation.Status = target
			reservation.UpdatedAt = now
			switch target {
			case entity.ReservationStatusConfirmed:
				reservation.ConfirmedAt = &now
			case entity.ReservationStatusCancelled:
				reservation.CancelledAt = &now
			}
			cp := *reservation
			return &cp, true, nil
		}
	}

	if reservation.Status == target {
		cp := *reservation
		return &cp, false, nil
	}

	return nil, false, &repository.StateConflictError{Current: reservation.Status}
}

func (f *fakeReservationRepo) FindExpirable(_ context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	f.mu.Lock()
	var due []*entity.Reservation
	for _, reservation := range f.reservations {
		if reservation.Status == entity.ReservationStatusPending && !reservation.ExpiresAt.After(now) {
			cp := *reservation
			due = append(due, &cp)
		}
	}
	f.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		return due[i].ExpiresAt.Before(due[j].ExpiresAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	if f.afterFindExpirable != nil {
		f.afterFindExpirable(due)
	}
	return due, nil
}

func (f *fakeReservationRepo) snapshot() map[uuid.UUID]*entity.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[uuid.UUID]*entity.Reservation, len(f.reservations))
	for id, reservation := range f.reservations {
		cp := *reservation
		snap[id] = &cp
	}
	return snap
}

func (f *fakeReservationRepo) restore(snap map[uuid.UUID]*entity.Reservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = snap
}

// fakeTxRunner mirrors transactional rollback by restoring both stores when
// the wrapped function fails.
type fakeTxRunner struct {
	repo         *repository.Repository
	seats        *fakeSeatRepo
	reservations *fakeReservationRepo
}

func (t *fakeTxRunner) WithinTx(_ context.Context, fn func(r *repository.Repository) error) error {
	seatSnap := t.seats.snapshot()
	reservationSnap := t.reservations.snapshot()

	if err := fn(t.repo); err != nil {
		t.seats.restore(seatSnap)
		t.reservations.restore(reservationSnap)
		return err
	}
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
}

func (p *fakePublisher) Publish(_ context.Context, event queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() {}

func (p *fakePublisher) published() []queue.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.ReservationEvent(nil), p.events...)
}
