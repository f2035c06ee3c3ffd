package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quizgenius/internal/llm"
	"quizgenius/internal/logger"
	"quizgenius/internal/metrics"
)

// Completer is the chat completion collaborator.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error)
}

type Generator struct {
	completer   Completer
	temperature float64
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func NewGenerator(completer Completer, temperature float64, log *logger.Logger, m *metrics.Metrics) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{
		completer:   completer,
		temperature: temperature,
		log:         log,
		metrics:     m,
	}
}

// Generate asks the model for a quiz and normalizes its answer.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) ([]QuestionRecord, error) {
	req.Topic = strings.TrimSpace(req.Topic)

	content, err := g.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(req)},
	}, g.temperature)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			g.metrics.ObserveGeneration("config_error")
			return nil, &ConfigurationError{Err: err}
		}
		g.metrics.ObserveGeneration("upstream_error")
		return nil, fmt.Errorf("request quiz completion: %w", err)
	}

	report, err := NormalizeReport(content, req.NumberOfQuestions)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			g.metrics.ObserveGeneration("parse_error")
			g.log.Warn("model response is not valid JSON", "topic", req.Topic, "error", err, "raw", truncate(parseErr.Raw, 500))
		} else {
			g.metrics.ObserveGeneration("empty")
			g.log.Warn("model response has no usable questions", "topic", req.Topic, "error", err)
		}
		return nil, err
	}

	for reason, count := range report.Dropped {
		g.metrics.ObserveDropped(reason, count)
	}
	g.metrics.ObserveGeneration("ok")

	if len(report.Questions) < req.NumberOfQuestions || len(report.Dropped) > 0 || report.Repaired > 0 {
		g.log.Info("quiz generated with adjustments",
			"topic", req.Topic,
			"requested", req.NumberOfQuestions,
			"returned", len(report.Questions),
			"dropped", report.Dropped,
			"repaired_answers", report.Repaired,
		)
	}
	return report.Questions, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
