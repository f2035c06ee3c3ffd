package httpapi

import (
	"context"

	"quizgenius/internal/leaderboard"
	"quizgenius/internal/logger"
	"quizgenius/internal/metrics"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
)

// GauntletBoard serves the global gauntlet ranking.
type GauntletBoard interface {
	Top(ctx context.Context, topic string, limit int64) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, topic, userID string) (int64, error)
}

type API struct {
	generator *quiz.Generator
	stats     *stats.Service
	board     GauntletBoard
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewAPI wires the handlers. board may be nil when Redis is not configured.
func NewAPI(generator *quiz.Generator, statsService *stats.Service, board GauntletBoard, log *logger.Logger, m *metrics.Metrics) *API {
	if log == nil {
		log = logger.NewNop()
	}
	return &API{
		generator: generator,
		stats:     statsService,
		board:     board,
		log:       log,
		metrics:   m,
	}
}
