package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
)

const (
	maxBodyBytes = 1 << 20

	msgGenerationFailed = "Failed to generate quiz. Please try again."
	msgConfiguration    = "API configuration error. Please check server configuration."
	msgNotSaved         = "your score may not have been saved"
)

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stats.ErrInvalidUserID):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: stats.ErrInvalidUserID.Error()})
	case errors.Is(err, stats.ErrInvalidUsername):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, stats.ErrUsernameTaken), errors.Is(err, stats.ErrProfileExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, profile.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "profile not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func writeGenerationError(w http.ResponseWriter, err error) {
	var configErr *quiz.ConfigurationError
	if errors.As(err, &configErr) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgConfiguration})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgGenerationFailed})
}

func decodeJSONBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

func parseBoolParam(r *http.Request, key string) bool {
	value := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	return value == "1" || value == "true" || value == "yes"
}

func parseIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return parsed, nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func normalizePreferences(p profile.Preferences) profile.Preferences {
	p.Difficulty = strings.ToLower(strings.TrimSpace(p.Difficulty))
	p.QuizLength = strings.TrimSpace(p.QuizLength)
	p.TimeLimit = strings.ToLower(strings.TrimSpace(p.TimeLimit))
	for i, interest := range p.Interests {
		p.Interests[i] = strings.TrimSpace(interest)
	}
	return p
}

func newProfileResponse(p profile.Profile) profileResponse {
	response := profileResponse{
		UserID:         p.UserID,
		Username:       p.Username,
		DisplayName:    p.DisplayName,
		Preferences:    p.EffectivePreferences(),
		Stats:          p.Stats,
		RecentActivity: p.RecentActivity,
		SavedQuizzes:   summarizeSavedQuizzes(p.SavedQuizzes),
	}
	if response.RecentActivity == nil {
		response.RecentActivity = []profile.ActivityEntry{}
	}
	return response
}

func summarizeSavedQuizzes(saved []profile.SavedQuiz) []savedQuizSummary {
	summaries := make([]savedQuizSummary, 0, len(saved))
	for _, s := range saved {
		best := 0
		for _, attempt := range s.Attempts {
			best = max(best, attempt.Score)
		}
		summaries = append(summaries, savedQuizSummary{
			ID:            s.ID,
			Topic:         s.Topic,
			Difficulty:    s.Difficulty,
			QuestionCount: len(s.Questions),
			AttemptCount:  len(s.Attempts),
			BestScore:     best,
			CreatedAt:     s.CreatedAt,
			LastAttemptAt: s.LastAttemptAt,
		})
	}
	return summaries
}
