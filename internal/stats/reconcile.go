package stats

import (
	"fmt"
	"math"
	"time"

	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
)

const (
	streakMinGap     = 20 * time.Hour
	streakMaxGap     = 48 * time.Hour
	masteryThreshold = 80
)

// QuizAttempt is one completed quiz as reported by the player.
type QuizAttempt struct {
	Topic            string
	Difficulty       string
	CorrectAnswers   int
	TotalQuestions   int
	TimeSpentSeconds int
	Questions        []quiz.QuestionRecord
}

type ReconcileInput struct {
	Attempt        QuizAttempt
	PriorStats     profile.UserStats
	PriorQuizzes   []profile.SavedQuiz
	PriorActivity  []profile.ActivityEntry
	IsRetry        bool
	ExistingQuizID string
	Now            time.Time
	NewID          func() string
}

type ReconcileResult struct {
	Stats        profile.UserStats
	SavedQuizzes []profile.SavedQuiz
	Activity     []profile.ActivityEntry
	Accuracy     int
	// QuizID is the saved quiz the attempt belongs to; empty when a retry
	// named an unknown quiz.
	QuizID string
}

// Reconcile folds one attempt into the prior stats, saved quizzes and
// activity. It does not mutate its inputs.
func Reconcile(in ReconcileInput) ReconcileResult {
	attempt := in.Attempt
	total := max(attempt.TotalQuestions, 0)
	correct := min(max(attempt.CorrectAnswers, 0), total)
	seconds := max(attempt.TimeSpentSeconds, 0)

	accuracy := Accuracy(correct, total)

	next := in.PriorStats
	next.LearningStreak = nextStreak(in.PriorStats, in.Now)
	if !in.IsRetry {
		next.AverageScore = roundDiv(float64(in.PriorStats.AverageScore*in.PriorStats.QuizzesTaken+accuracy), float64(in.PriorStats.QuizzesTaken+1))
		next.QuizzesTaken++
		next.TotalQuestions += total
		next.CorrectAnswers += correct
		if accuracy >= masteryThreshold {
			next.TopicsMastered++
		}
	}
	next.TimeSpent += roundDiv(float64(seconds), 60)
	next.LastQuizDate = profile.At(in.Now)

	result := ReconcileResult{Stats: next, Accuracy: accuracy}

	record := profile.QuizAttempt{
		Timestamp: profile.At(in.Now),
		Score:     accuracy,
		TimeSpent: seconds,
	}
	if in.IsRetry {
		result.SavedQuizzes, result.QuizID = appendRetry(in.PriorQuizzes, in.ExistingQuizID, record)
	} else {
		result.QuizID = in.NewID()
		saved := profile.SavedQuiz{
			ID:            result.QuizID,
			Topic:         attempt.Topic,
			Difficulty:    attempt.Difficulty,
			Questions:     attempt.Questions,
			CreatedAt:     profile.At(in.Now),
			LastAttemptAt: profile.At(in.Now),
			Attempts:      []profile.QuizAttempt{record},
		}
		result.SavedQuizzes = prepend(in.PriorQuizzes, saved)
	}

	verb := "Completed"
	if in.IsRetry {
		verb = "Retried"
	}
	entry := profile.ActivityEntry{
		ID:             in.NewID(),
		Type:           profile.ActivityQuizTaken,
		Topic:          attempt.Topic,
		Score:          accuracy,
		Difficulty:     attempt.Difficulty,
		Details:        fmt.Sprintf("%s %s quiz on %s with %d%% accuracy", verb, attempt.Difficulty, attempt.Topic, accuracy),
		QuizID:         result.QuizID,
		CorrectAnswers: correct,
		TotalQuestions: total,
		Timestamp:      profile.At(in.Now),
	}
	if in.IsRetry {
		entry.QuizID = in.ExistingQuizID
	}
	result.Activity = PushActivity(in.PriorActivity, entry)
	return result
}

// Accuracy is round(100*correct/total), or 0 for an empty quiz.
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return roundDiv(float64(100*correct), float64(total))
}

// PushActivity prepends entry and keeps the newest profile.ActivityLimit.
func PushActivity(prior []profile.ActivityEntry, entry profile.ActivityEntry) []profile.ActivityEntry {
	next := prepend(prior, entry)
	if len(next) > profile.ActivityLimit {
		next = next[:profile.ActivityLimit]
	}
	return next
}

func nextStreak(prior profile.UserStats, now time.Time) int {
	if prior.LastQuizDate.IsZero() {
		return 1
	}
	elapsed := now.Sub(prior.LastQuizDate.Time)
	switch {
	case elapsed < streakMinGap:
		return prior.LearningStreak
	case elapsed <= streakMaxGap:
		return prior.LearningStreak + 1
	default:
		return 1
	}
}

func appendRetry(prior []profile.SavedQuiz, quizID string, record profile.QuizAttempt) ([]profile.SavedQuiz, string) {
	next := make([]profile.SavedQuiz, len(prior))
	copy(next, prior)
	if quizID == "" {
		return next, ""
	}
	for idx := range next {
		if next[idx].ID != quizID {
			continue
		}
		next[idx].Attempts = prepend(next[idx].Attempts, record)
		next[idx].LastAttemptAt = record.Timestamp
		return next, quizID
	}
	return next, ""
}

func prepend[T any](prior []T, item T) []T {
	next := make([]T, 0, len(prior)+1)
	next = append(next, item)
	return append(next, prior...)
}

func roundDiv(numerator, denominator float64) int {
	return int(math.Round(numerator / denominator))
}
