package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(api.log, api.metrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/healthz", api.HandleHealth)
	r.Method(http.MethodGet, "/metrics", api.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/quiz/generate", api.HandleGenerateQuiz)
		r.Get("/gauntlet/leaderboard", api.HandleGauntletLeaderboard)
		r.Get("/usernames/{username}", api.HandleUsernameAvailability)

		r.Route("/users/{user_id}", func(r chi.Router) {
			r.Get("/profile", api.HandleProfile)
			r.Put("/profile", api.HandleProfileSetup)
			r.Put("/preferences", api.HandleUpdatePreferences)
			r.Post("/quiz-results", api.HandleQuizResults)
			r.Post("/gauntlet-results", api.HandleGauntletResults)
			r.Get("/quizzes/{quiz_id}", api.HandleSavedQuiz)
			r.Get("/gauntlet", api.HandleGauntletScores)
			r.Get("/gauntlet/rank", api.HandleGauntletRank)
		})
	})

	return r
}
