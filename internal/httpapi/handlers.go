package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"quizgenius/internal/leaderboard"
	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
	"quizgenius/internal/validation"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) HandleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	if a.generator == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgGenerationFailed})
		return
	}

	var body generateQuizRequest
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	request := body.GenerateRequest
	request.Topic = strings.TrimSpace(request.Topic)
	request.Difficulty = strings.ToLower(strings.TrimSpace(request.Difficulty))
	request.PreferredStyle = strings.ToLower(strings.TrimSpace(request.PreferredStyle))
	if userID := strings.TrimSpace(body.UserID); userID != "" && a.stats != nil {
		request = a.applyPreferences(r, userID, request)
	}
	if fieldErrs := validation.Validate(request); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fieldErrs})
		return
	}

	questions, err := a.generator.Generate(r.Context(), request)
	if err != nil {
		a.log.Error("quiz generation failed", "topic", request.Topic, "difficulty", request.Difficulty, "error", err)
		writeGenerationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateQuizResponse{Questions: questions})
}

func (a *API) HandleQuizResults(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))

	var request quizResultRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	// Graded answers take precedence over client-reported counts.
	if len(request.Answers) > 0 && len(request.Questions) > 0 {
		request.CorrectAnswers = quiz.Grade(request.Questions, request.Answers)
		request.TotalQuestions = len(request.Questions)
	}
	if fieldErrs := validation.Validate(request); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fieldErrs})
		return
	}

	result, err := a.stats.RecordQuiz(r.Context(), userID, stats.QuizSubmission{
		Attempt: stats.QuizAttempt{
			Topic:            strings.TrimSpace(request.Topic),
			Difficulty:       strings.TrimSpace(request.Difficulty),
			CorrectAnswers:   request.CorrectAnswers,
			TotalQuestions:   request.TotalQuestions,
			TimeSpentSeconds: request.TimeSpent,
			Questions:        request.Questions,
		},
		Retry:  request.Retry,
		QuizID: request.QuizID,
	})

	response := quizResultResponse{
		QuizID:         result.QuizID,
		Accuracy:       result.Accuracy,
		CorrectAnswers: request.CorrectAnswers,
		TotalQuestions: request.TotalQuestions,
		Stats:          result.Stats,
		Saved:          err == nil,
	}
	if err != nil {
		var persistErr *stats.PersistenceError
		if !errors.As(err, &persistErr) {
			writeServiceError(w, err)
			return
		}
		response.Warning = msgNotSaved
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) HandleGauntletResults(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))

	var request gauntletResultRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if fieldErrs := validation.Validate(request); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fieldErrs})
		return
	}

	outcome, err := a.stats.RecordGauntlet(r.Context(), userID, stats.GauntletResult{
		Topic:             strings.TrimSpace(request.Topic),
		Difficulty:        strings.TrimSpace(request.Difficulty),
		Score:             request.Score,
		CorrectAnswers:    request.CorrectAnswers,
		QuestionsAnswered: request.QuestionsAnswered,
		Strikes:           request.Strikes,
		BestStreak:        request.BestStreak,
		TimeSpentSeconds:  request.TimeSpent,
	})

	response := gauntletResultResponse{
		Score: outcome.Score,
		Rank:  stats.RankTitle(outcome.Score.Score),
		Saved: err == nil,
	}
	if err != nil {
		var persistErr *stats.PersistenceError
		if !errors.As(err, &persistErr) {
			writeServiceError(w, err)
			return
		}
		response.Warning = msgNotSaved
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) HandleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := a.stats.Profile(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		a.log.Error("loading profile failed", "error", err)
		writeServiceError(w, err)
		return
	}

	response := newProfileResponse(p)
	if parseBoolParam(r, "include_questions") {
		response.QuizDetails = p.SavedQuizzes
	}
	writeJSON(w, http.StatusOK, response)
}

// applyPreferences fills blanks in request from the user's stored
// preferences. A failed lookup falls back to the default preferences.
func (a *API) applyPreferences(r *http.Request, userID string, request quiz.GenerateRequest) quiz.GenerateRequest {
	if request.Difficulty != "" && request.NumberOfQuestions > 0 {
		return request
	}
	prefs, err := a.stats.Preferences(r.Context(), userID)
	if err != nil {
		a.log.Warn("loading preferences failed; using defaults", "user_id", userID, "error", err)
		prefs = profile.DefaultPreferences()
	}
	return prefs.FillRequest(request)
}

func (a *API) HandleProfileSetup(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))

	var request profileSetupRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	request.Username = strings.TrimSpace(request.Username)
	request.DisplayName = strings.TrimSpace(request.DisplayName)
	request.Preferences = normalizePreferences(request.Preferences)
	if fieldErrs := validation.Validate(request); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fieldErrs})
		return
	}

	p, err := a.stats.SetupProfile(r.Context(), userID, stats.ProfileSetup{
		Username:    request.Username,
		DisplayName: request.DisplayName,
		Preferences: request.Preferences,
	})
	if err != nil {
		a.log.Warn("profile setup failed", "user_id", userID, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProfileResponse(p))
}

func (a *API) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))

	var request profile.Preferences
	if err := decodeJSONBody(r, &request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	request = normalizePreferences(request)
	if fieldErrs := validation.Validate(request); fieldErrs != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fieldErrs})
		return
	}

	prefs, err := a.stats.UpdatePreferences(r.Context(), userID, request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *API) HandleUsernameAvailability(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))

	available, err := a.stats.UsernameAvailable(r.Context(), username)
	if err != nil {
		a.log.Error("checking username failed", "username", username, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usernameResponse{Username: username, Available: available})
}

func (a *API) HandleSavedQuiz(w http.ResponseWriter, r *http.Request) {
	p, err := a.stats.Profile(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	saved, ok := p.FindSavedQuiz(strings.TrimSpace(chi.URLParam(r, "quiz_id")))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quiz not found"})
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (a *API) HandleGauntletScores(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", stats.TopGauntletLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	top, summary, err := a.stats.TopGauntletScores(r.Context(), chi.URLParam(r, "user_id"), min(limit, maxListLimit))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if top == nil {
		top = []profile.GauntletScore{}
	}
	writeJSON(w, http.StatusOK, gauntletScoresResponse{Scores: top, Summary: summary})
}

func (a *API) HandleGauntletLeaderboard(w http.ResponseWriter, r *http.Request) {
	if a.board == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "leaderboard unavailable"})
		return
	}

	limit, err := parseIntParam(r, "limit", defaultListLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))

	entries, err := a.board.Top(r.Context(), topic, int64(min(limit, maxListLimit)))
	if err != nil {
		a.log.Warn("reading gauntlet leaderboard failed", "topic", topic, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "leaderboard unavailable"})
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, gauntletLeaderboardResponse{Topic: topic, Entries: entries})
}

func (a *API) HandleGauntletRank(w http.ResponseWriter, r *http.Request) {
	if a.board == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "leaderboard unavailable"})
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "user_id"))
	if userID == "" {
		writeServiceError(w, stats.ErrInvalidUserID)
		return
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))

	rank, err := a.board.Rank(r.Context(), topic, userID)
	if err != nil {
		a.log.Warn("reading gauntlet rank failed", "user_id", userID, "topic", topic, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "leaderboard unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, gauntletRankResponse{UserID: userID, Topic: topic, Rank: rank})
}
