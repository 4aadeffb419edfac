package wire

import (
	"net/http"

	"ticket-reservation/internal/adaptor"
	"ticket-reservation/internal/data/repository"
	"ticket-reservation/internal/queue"
	"ticket-reservation/internal/usecase"
	"ticket-reservation/pkg/middleware"
	"ticket-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the wired application.
type App struct {
	Router  *chi.Mux
	Sweeper *usecase.Sweeper
}

// Wiring initializes all dependencies.
func Wiring(repo *repository.Repository, config *utils.Config, events queue.Publisher, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, events, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, logger)

	sweeper := usecase.NewSweeper(
		service.Reservation,
		config.Reservation.SweepInterval,
		config.Reservation.SweepBatch,
		logger,
	)

	return &App{
		Router:  router,
		Sweeper: sweeper,
	}
}

func setupRouter(handler *adaptor.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireEvent(r, handler.Event)
	wireReservation(r, handler.Reservation, handler.Payment, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
