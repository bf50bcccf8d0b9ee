package routes

import (
	"net/http"

	"github.com/Vbif322/cue-bot/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	wsHandler *handlers.WebSocketHandler,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournamentHandler.CreateTournament)
		r.Get("/", tournamentHandler.ListTournaments)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetTournament)
			r.Delete("/", tournamentHandler.DeleteTournament)
			r.Get("/full", tournamentHandler.GetFullTournament)
			r.Get("/progress", tournamentHandler.GetProgress)
			r.Get("/standings", tournamentHandler.GetStandings)

			r.Post("/participants", tournamentHandler.RegisterParticipant)
			r.Post("/start", tournamentHandler.StartTournament)
			r.Post("/cancel", tournamentHandler.CancelTournament)

			r.Get("/matches", matchHandler.ListTournamentMatches)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", matchHandler.GetMatch)
		r.Post("/start", matchHandler.StartMatch)
		r.Post("/report", matchHandler.ReportResult)
		r.Post("/confirm", matchHandler.ConfirmResult)
		r.Post("/dispute", matchHandler.DisputeResult)
		r.Post("/technical-result", matchHandler.SetTechnicalResult)
	})

	router.Get("/ws/tournaments/{tournamentID}", wsHandler.ServeTournamentWS)

	return router
}
