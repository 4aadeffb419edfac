package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ticket-reservation/internal/data/repository"
	"ticket-reservation/internal/dto/request"
	"ticket-reservation/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newEventTestEnv() (*testEnv, usecase.EventService) {
	env := newTestEnv()
	return env, usecase.NewEventService(env.repo, zap.NewNop())
}

func TestCreateEventBuildsSeatGrid(t *testing.T) {
	_, events := newEventTestEnv()

	created, err := events.CreateEvent(context.Background(), &request.CreateEventRequest{
		Name:      "Jazz Night",
		Venue:     "Blue Room",
		StartsAt:  time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		SeatRows:  2,
		SeatCols:  3,
		SeatPrice: 35,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	seats, err := events.GetEventSeats(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetEventSeats: %v", err)
	}
	if len(seats) != 6 {
		t.Fatalf("seat count = %d, want 6", len(seats))
	}

	wantNumbers := []string{"A1", "A2", "A3", "B1", "B2", "B3"}
	for i, seat := range seats {
		if seat.SeatNumber != wantNumbers[i] {
			t.Errorf("seat[%d] = %s, want %s", i, seat.SeatNumber, wantNumbers[i])
		}
		if !seat.Available || seat.Sold {
			t.Errorf("seat %s not available on creation", seat.SeatNumber)
		}
	}
}

func TestCreateEventRejectsBadInput(t *testing.T) {
	_, events := newEventTestEnv()

	_, err := events.CreateEvent(context.Background(), &request.CreateEventRequest{
		Name:      "No Seats",
		Venue:     "Nowhere",
		StartsAt:  time.Now().Format(time.RFC3339),
		SeatRows:  0,
		SeatCols:  10,
		SeatPrice: 10,
	})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v, want validation failure", err)
	}

	_, err = events.CreateEvent(context.Background(), &request.CreateEventRequest{
		Name:      "Bad Time",
		Venue:     "Somewhere",
		StartsAt:  "next tuesday",
		SeatRows:  1,
		SeatCols:  1,
		SeatPrice: 10,
	})
	if err == nil || !strings.Contains(err.Error(), "starts_at") {
		t.Errorf("err = %v, want starts_at parse failure", err)
	}
}

func TestGetEventSeatsReflectsHolds(t *testing.T) {
	env, events := newEventTestEnv()
	eventID := env.seedEvent(t)
	seatIDs := env.seedSeats(t, eventID, 2)

	created, err := env.service.CreateReservation(context.Background(), uuid.New().String(), createRequest(eventID, seatIDs[:1], nil))
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if _, err := env.service.ConfirmReservation(context.Background(), created.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	seats, err := events.GetEventSeats(context.Background(), eventID.String())
	if err != nil {
		t.Fatalf("GetEventSeats: %v", err)
	}

	byNumber := make(map[string]bool)
	for _, seat := range seats {
		byNumber[seat.SeatNumber] = true
		switch seat.SeatNumber {
		case "A1":
			if seat.Available || !seat.Sold {
				t.Errorf("A1 available=%v sold=%v, want taken and sold", seat.Available, seat.Sold)
			}
		case "A2":
			if !seat.Available || seat.Sold {
				t.Errorf("A2 available=%v sold=%v, want free", seat.Available, seat.Sold)
			}
		}
	}
	if len(byNumber) != 2 {
		t.Errorf("seat count = %d, want 2", len(byNumber))
	}
}

func TestListEvents(t *testing.T) {
	_, events := newEventTestEnv()

	starts := time.Now().Add(24 * time.Hour)
	for i, name := range []string{"Early Show", "Late Show"} {
		_, err := events.CreateEvent(context.Background(), &request.CreateEventRequest{
			Name:      name,
			Venue:     "Main Hall",
			StartsAt:  starts.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			SeatRows:  1,
			SeatCols:  1,
			SeatPrice: 20,
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	listed, err := events.ListEvents(context.Background(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed %d events, want 2", len(listed))
	}
	if listed[0].Name != "Early Show" || listed[1].Name != "Late Show" {
		t.Errorf("order = [%s, %s], want start-time ascending", listed[0].Name, listed[1].Name)
	}

	page, err := events.ListEvents(context.Background(), &request.PaginatedRequest{Page: 2, PerPage: 1})
	if err != nil {
		t.Fatalf("ListEvents page 2: %v", err)
	}
	if len(page) != 1 || page[0].Name != "Late Show" {
		t.Errorf("page 2 = %v, want just Late Show", page)
	}
}

func TestGetEventUnknown(t *testing.T) {
	_, events := newEventTestEnv()

	_, err := events.GetEvent(context.Background(), uuid.New().String())
	if !errors.Is(err, repository.ErrEventNotFound) {
		t.Errorf("err = %v, want ErrEventNotFound", err)
	}
}
