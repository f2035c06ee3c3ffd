package userclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizgenius/internal/httpapi"
	"quizgenius/internal/leaderboard"
	"quizgenius/internal/llm"
	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type cannedCompleter string

func (c cannedCompleter) Complete(context.Context, []llm.Message, float64) (string, error) {
	return string(c), nil
}

type cannedBoard []leaderboard.Entry

func (b cannedBoard) Top(context.Context, string, int64) ([]leaderboard.Entry, error) {
	return b, nil
}

func (b cannedBoard) Rank(context.Context, string, string) (int64, error) {
	return 0, nil
}

func newTestServer(t *testing.T, board httpapi.GauntletBoard) *httptest.Server {
	t.Helper()

	completer := cannedCompleter(`[{"question":"Q?","options":["a","b","c","d"],"correctAnswer":"D","explanation":"Because."}]`)
	api := httpapi.NewAPI(
		quiz.NewGenerator(completer, 0.7, nil, nil),
		stats.NewService(profile.NewMemoryStore(), nil, nil),
		board, nil, nil,
	)
	server := httptest.NewServer(httpapi.NewRouter(api))
	t.Cleanup(server.Close)
	return server
}

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	client := NewHTTPClient("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})

	err := client.doJSON(context.Background(), http.MethodGet, "/healthz", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable wrapper, got %v", err)
	}
}

func TestDoJSONReturnsAPIErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "bad request payload"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	err := client.doJSON(context.Background(), http.MethodGet, "/anything", nil, nil)
	if err == nil {
		t.Fatalf("expected API error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", apiErr.StatusCode, http.StatusBadRequest)
	}
	if apiErr.Message != "bad request payload" {
		t.Fatalf("message = %q, want %q", apiErr.Message, "bad request payload")
	}
}

func TestClientAgainstService(t *testing.T) {
	server := newTestServer(t, cannedBoard{{UserID: "alice", Score: 320, Rank: 1}})
	client := NewHTTPClient(server.URL+"/", server.Client())
	ctx := context.Background()

	questions, err := client.Generate(ctx, quiz.GenerateRequest{Topic: "Go", Difficulty: "easy", NumberOfQuestions: 1})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "D" {
		t.Fatalf("unexpected questions: %+v", questions)
	}

	result, err := client.RecordQuiz(ctx, "alice", stats.QuizSubmission{Attempt: stats.QuizAttempt{
		Topic: "Go", Difficulty: "easy", CorrectAnswers: 1, TotalQuestions: 1, TimeSpentSeconds: 30, Questions: questions,
	}})
	if err != nil {
		t.Fatalf("RecordQuiz failed: %v", err)
	}
	if result.Accuracy != 100 || result.QuizID == "" || result.Stats.QuizzesTaken != 1 {
		t.Fatalf("unexpected quiz result: %+v", result)
	}

	outcome, err := client.RecordGauntlet(ctx, "alice", stats.GauntletResult{
		Topic: "Go", Difficulty: "easy", Score: 320, CorrectAnswers: 3, QuestionsAnswered: 4, Strikes: 1, BestStreak: 2, TimeSpentSeconds: 90,
	})
	if err != nil {
		t.Fatalf("RecordGauntlet failed: %v", err)
	}
	if outcome.Score.Score != 320 || outcome.Score.ID == "" {
		t.Fatalf("unexpected gauntlet outcome: %+v", outcome.Score)
	}

	entries, err := client.Top(ctx, "Go", 5)
	if err != nil {
		t.Fatalf("Top failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "alice" {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}
}

func TestClientSurfacesValidationErrors(t *testing.T) {
	server := newTestServer(t, nil)
	client := NewHTTPClient(server.URL, server.Client())

	_, err := client.Generate(context.Background(), quiz.GenerateRequest{Topic: "Go", Difficulty: "impossible", NumberOfQuestions: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 APIError, got %v", err)
	}

	_, err = client.Top(context.Background(), "", 0)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 APIError without a leaderboard, got %v", err)
	}

	if _, err := client.RecordQuiz(context.Background(), " ", stats.QuizSubmission{}); !errors.Is(err, stats.ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}

func TestUnsavedResponseIsPersistenceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(quizResultResponse{Accuracy: 75, Saved: false, Warning: "your score may not have been saved"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	result, err := client.RecordQuiz(context.Background(), "bob", stats.QuizSubmission{})

	var persistErr *stats.PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected *stats.PersistenceError, got %v", err)
	}
	if result.Accuracy != 75 {
		t.Fatalf("accuracy = %d, want 75", result.Accuracy)
	}
}

func TestClientPreferences(t *testing.T) {
	server := newTestServer(t, nil)
	client := NewHTTPClient(server.URL, server.Client())
	ctx := context.Background()

	prefs, err := client.Preferences(ctx, "alice")
	if err != nil {
		t.Fatalf("Preferences failed: %v", err)
	}
	if prefs.Difficulty != "medium" || prefs.QuestionCount() != 10 {
		t.Fatalf("expected default preferences, got %+v", prefs)
	}

	if err := client.doJSON(ctx, http.MethodPut, userPath("alice", "preferences"), map[string]any{"difficulty": "hard", "quizLength": "20-30"}, nil); err != nil {
		t.Fatalf("updating preferences failed: %v", err)
	}

	prefs, err = client.Preferences(ctx, "alice")
	if err != nil {
		t.Fatalf("Preferences failed: %v", err)
	}
	if prefs.Difficulty != "hard" || prefs.QuestionCount() != 20 || prefs.TimeLimit != "standard" {
		t.Fatalf("unexpected preferences: %+v", prefs)
	}

	if _, err := client.Preferences(ctx, " "); !errors.Is(err, stats.ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}
