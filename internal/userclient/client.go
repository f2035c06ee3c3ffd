package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"quizgenius/internal/leaderboard"
	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
)

var ErrServiceUnavailable = errors.New("quizgenius service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to a running quizgenius service. It satisfies the same
// quiz source and recorder contracts as the in-process generator and stats
// service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type generateResponse struct {
	Questions []quiz.QuestionRecord `json:"questions"`
}

type quizResultRequest struct {
	Topic          string                `json:"topic"`
	Difficulty     string                `json:"difficulty"`
	CorrectAnswers int                   `json:"correctAnswers"`
	TotalQuestions int                   `json:"totalQuestions"`
	TimeSpent      int                   `json:"timeSpent"`
	Questions      []quiz.QuestionRecord `json:"questions,omitempty"`
	Retry          bool                  `json:"retry"`
	QuizID         string                `json:"quizId,omitempty"`
}

type quizResultResponse struct {
	QuizID   string            `json:"quizId"`
	Accuracy int               `json:"accuracy"`
	Stats    profile.UserStats `json:"stats"`
	Saved    bool              `json:"saved"`
	Warning  string            `json:"warning"`
}

type gauntletResultRequest struct {
	Topic             string `json:"topic"`
	Difficulty        string `json:"difficulty"`
	Score             int    `json:"score"`
	CorrectAnswers    int    `json:"correctAnswers"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	Strikes           int    `json:"strikes"`
	BestStreak        int    `json:"bestStreak"`
	TimeSpent         int    `json:"timeSpent"`
}

type gauntletResultResponse struct {
	Score   profile.GauntletScore `json:"score"`
	Saved   bool                  `json:"saved"`
	Warning string                `json:"warning"`
}

type leaderboardResponse struct {
	Entries []leaderboard.Entry `json:"entries"`
}

type profileResponse struct {
	Preferences profile.Preferences `json:"preferences"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, req quiz.GenerateRequest) ([]quiz.QuestionRecord, error) {
	var payload generateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/quiz/generate", req, &payload); err != nil {
		return nil, err
	}
	return payload.Questions, nil
}

// RecordQuiz submits a finished quiz. A response the server could not save
// comes back as a *stats.PersistenceError next to the computed result.
func (c *HTTPClient) RecordQuiz(ctx context.Context, userID string, sub stats.QuizSubmission) (stats.ReconcileResult, error) {
	if strings.TrimSpace(userID) == "" {
		return stats.ReconcileResult{}, stats.ErrInvalidUserID
	}

	request := quizResultRequest{
		Topic:          sub.Attempt.Topic,
		Difficulty:     sub.Attempt.Difficulty,
		CorrectAnswers: sub.Attempt.CorrectAnswers,
		TotalQuestions: sub.Attempt.TotalQuestions,
		TimeSpent:      sub.Attempt.TimeSpentSeconds,
		Questions:      sub.Attempt.Questions,
		Retry:          sub.Retry,
		QuizID:         sub.QuizID,
	}

	var payload quizResultResponse
	if err := c.doJSON(ctx, http.MethodPost, userPath(userID, "quiz-results"), request, &payload); err != nil {
		return stats.ReconcileResult{}, err
	}

	result := stats.ReconcileResult{
		Stats:    payload.Stats,
		Accuracy: payload.Accuracy,
		QuizID:   payload.QuizID,
	}
	return result, unsaved(payload.Saved, payload.Warning)
}

func (c *HTTPClient) RecordGauntlet(ctx context.Context, userID string, run stats.GauntletResult) (stats.GauntletOutcome, error) {
	if strings.TrimSpace(userID) == "" {
		return stats.GauntletOutcome{}, stats.ErrInvalidUserID
	}

	request := gauntletResultRequest{
		Topic:             run.Topic,
		Difficulty:        run.Difficulty,
		Score:             run.Score,
		CorrectAnswers:    run.CorrectAnswers,
		QuestionsAnswered: run.QuestionsAnswered,
		Strikes:           run.Strikes,
		BestStreak:        run.BestStreak,
		TimeSpent:         run.TimeSpentSeconds,
	}

	var payload gauntletResultResponse
	if err := c.doJSON(ctx, http.MethodPost, userPath(userID, "gauntlet-results"), request, &payload); err != nil {
		return stats.GauntletOutcome{}, err
	}
	return stats.GauntletOutcome{Score: payload.Score}, unsaved(payload.Saved, payload.Warning)
}

// Top reads the global gauntlet leaderboard, optionally for one topic.
func (c *HTTPClient) Top(ctx context.Context, topic string, limit int64) ([]leaderboard.Entry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.FormatInt(limit, 10))
	}
	if trimmed := strings.TrimSpace(topic); trimmed != "" {
		query.Set("topic", trimmed)
	}

	path := "/api/gauntlet/leaderboard"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var payload leaderboardResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Entries, nil
}

// Preferences reads the user's quiz preferences from their profile.
func (c *HTTPClient) Preferences(ctx context.Context, userID string) (profile.Preferences, error) {
	if strings.TrimSpace(userID) == "" {
		return profile.Preferences{}, stats.ErrInvalidUserID
	}

	var payload profileResponse
	if err := c.doJSON(ctx, http.MethodGet, userPath(userID, "profile"), nil, &payload); err != nil {
		return profile.Preferences{}, err
	}
	return payload.Preferences.WithDefaults(), nil
}

func userPath(userID, resource string) string {
	return "/api/users/" + url.PathEscape(strings.TrimSpace(userID)) + "/" + resource
}

func unsaved(saved bool, warning string) error {
	if saved {
		return nil
	}
	if strings.TrimSpace(warning) == "" {
		warning = "result not saved"
	}
	return &stats.PersistenceError{Op: "write", Err: errors.New(warning)}
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
