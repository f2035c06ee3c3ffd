package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizgenius/internal/llm"
	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
)

func TestParseIntParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/gauntlet/leaderboard", nil)
	if got, err := parseIntParam(req, "limit", 10); err != nil || got != 10 {
		t.Fatalf("default parseIntParam = (%d, %v), want (10, nil)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/gauntlet/leaderboard?limit=25", nil)
	if got, err := parseIntParam(req, "limit", 10); err != nil || got != 25 {
		t.Fatalf("valid parseIntParam = (%d, %v), want (25, nil)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/gauntlet/leaderboard?limit=0", nil)
	if _, err := parseIntParam(req, "limit", 10); err == nil {
		t.Fatalf("expected error for non-positive limit")
	}
}

func TestParseBoolParam(t *testing.T) {
	for value, want := range map[string]bool{"true": true, "yes": true, "1": true, "0": false, "": false} {
		req := httptest.NewRequest(http.MethodGet, "/api/users/u1/profile?include_questions="+value, nil)
		if got := parseBoolParam(req, "include_questions"); got != want {
			t.Fatalf("parseBoolParam(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: stats.ErrInvalidUserID, want: http.StatusBadRequest},
		{err: profile.ErrNotFound, want: http.StatusNotFound},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tc.err)
		if rec.Code != tc.want {
			t.Fatalf("writeServiceError(%v) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestWriteGenerationErrorMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	writeGenerationError(rec, &quiz.ConfigurationError{Err: llm.ErrMissingAPIKey})
	if rec.Code != http.StatusInternalServerError || !containsJSON(rec.Body.String(), msgConfiguration) {
		t.Fatalf("unexpected configuration error response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	writeGenerationError(rec, &quiz.EmptyResultError{})
	if rec.Code != http.StatusInternalServerError || !containsJSON(rec.Body.String(), msgGenerationFailed) {
		t.Fatalf("unexpected generation error response: %d %s", rec.Code, rec.Body.String())
	}
}
