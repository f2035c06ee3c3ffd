package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"quizgenius/internal/profile"
)

const (
	GauntletDuration   = 180 * time.Second
	GauntletMaxStrikes = 3

	gauntletBasePoints   = 100
	gauntletStreakStep   = 10
	gauntletStreakCap    = 100
	gauntletTimeBonusMax = 50

	gauntletActivityDifficulty = "gauntlet"
)

// GauntletSession scores one timed gauntlet run.
type GauntletSession struct {
	Topic      string
	Difficulty string

	Score             int
	CorrectAnswers    int
	QuestionsAnswered int
	Strikes           int
	Streak            int
	BestStreak        int
}

func NewGauntletSession(topic, difficulty string) *GauntletSession {
	return &GauntletSession{Topic: topic, Difficulty: difficulty}
}

// Answer records one answer given with timeLeft on the clock and returns the
// points it earned.
func (s *GauntletSession) Answer(correct bool, timeLeft time.Duration) int {
	if s.Over(timeLeft) {
		return 0
	}
	s.QuestionsAnswered++

	if !correct {
		s.Strikes++
		s.Streak = 0
		return 0
	}

	points := gauntletBasePoints + min(s.Streak*gauntletStreakStep, gauntletStreakCap) + timeBonus(timeLeft)
	s.Score += points
	s.CorrectAnswers++
	s.Streak++
	s.BestStreak = max(s.BestStreak, s.Streak)
	return points
}

// Over reports whether the run has ended by strikes or by the clock.
func (s *GauntletSession) Over(timeLeft time.Duration) bool {
	return s.Strikes >= GauntletMaxStrikes || timeLeft <= 0
}

// Result summarises the run; elapsed is the time actually played.
func (s *GauntletSession) Result(elapsed time.Duration) GauntletResult {
	return GauntletResult{
		Topic:             s.Topic,
		Difficulty:        s.Difficulty,
		Score:             s.Score,
		CorrectAnswers:    s.CorrectAnswers,
		QuestionsAnswered: s.QuestionsAnswered,
		Strikes:           s.Strikes,
		BestStreak:        s.BestStreak,
		TimeSpentSeconds:  int(min(elapsed, GauntletDuration).Round(time.Second) / time.Second),
	}
}

func timeBonus(timeLeft time.Duration) int {
	ratio := math.Min(timeLeft.Seconds()/GauntletDuration.Seconds(), 1)
	return int(math.Round(ratio * gauntletTimeBonusMax))
}

// GauntletResult is a finished gauntlet run as reported by the player.
type GauntletResult struct {
	Topic             string
	Difficulty        string
	Score             int
	CorrectAnswers    int
	QuestionsAnswered int
	Strikes           int
	BestStreak        int
	TimeSpentSeconds  int
}

type GauntletInput struct {
	Result        GauntletResult
	PriorScores   profile.GauntletScoreStore
	PriorActivity []profile.ActivityEntry
	Now           time.Time
	NewID         func() string
}

type GauntletOutcome struct {
	Score    profile.GauntletScore
	Scores   []profile.GauntletScore
	Activity []profile.ActivityEntry
	// Migrated is set when the prior scores were in the legacy layout.
	Migrated bool
}

// RecordGauntlet appends a finished run to the flat score list, migrating a
// legacy layout first, and logs it in the activity ring.
func RecordGauntlet(in GauntletInput) GauntletOutcome {
	migrated, changed := profile.Migrate(profile.Profile{GauntletScores: in.PriorScores}, in.Now, in.NewID)
	prior := migrated.GauntletScores.Scores()

	r := in.Result
	score := profile.GauntletScore{
		ID:                in.NewID(),
		Topic:             r.Topic,
		Difficulty:        r.Difficulty,
		Score:             max(r.Score, 0),
		CorrectAnswers:    max(r.CorrectAnswers, 0),
		QuestionsAnswered: max(r.QuestionsAnswered, 0),
		Strikes:           max(r.Strikes, 0),
		BestStreak:        max(r.BestStreak, 0),
		TimeSpent:         max(r.TimeSpentSeconds, 0),
		Date:              profile.At(in.Now),
	}

	scores := make([]profile.GauntletScore, 0, len(prior)+1)
	scores = append(scores, prior...)
	scores = append(scores, score)

	entry := profile.ActivityEntry{
		ID:             in.NewID(),
		Type:           profile.ActivityQuizTaken,
		Topic:          r.Topic,
		Score:          score.Score,
		Difficulty:     gauntletActivityDifficulty,
		Details:        fmt.Sprintf("Gauntlet Challenge: %d correct, score: %d", score.CorrectAnswers, score.Score),
		CorrectAnswers: score.CorrectAnswers,
		TotalQuestions: score.QuestionsAnswered,
		Timestamp:      profile.At(in.Now),
	}

	return GauntletOutcome{
		Score:    score,
		Scores:   scores,
		Activity: PushActivity(in.PriorActivity, entry),
		Migrated: changed,
	}
}

var rankTitles = []struct {
	minScore int
	title    string
}{
	{1000, "Legendary Master"},
	{800, "Grandmaster"},
	{600, "Expert Challenger"},
	{400, "Skilled Quizzer"},
	{200, "Knowledge Seeker"},
}

func RankTitle(score int) string {
	for _, rank := range rankTitles {
		if score >= rank.minScore {
			return rank.title
		}
	}
	return "Novice"
}

// TopScores returns up to limit scores, highest first; ties keep the older
// run first.
func TopScores(scores []profile.GauntletScore, limit int) []profile.GauntletScore {
	sorted := make([]profile.GauntletScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

type GauntletSummary struct {
	Played       int    `json:"played"`
	BestScore    int    `json:"bestScore"`
	AverageScore int    `json:"averageScore"`
	Rank         string `json:"rank"`
}

func Summarize(scores []profile.GauntletScore) GauntletSummary {
	summary := GauntletSummary{Played: len(scores)}
	if len(scores) == 0 {
		summary.Rank = RankTitle(0)
		return summary
	}
	total := 0
	for _, s := range scores {
		total += s.Score
		summary.BestScore = max(summary.BestScore, s.Score)
	}
	summary.AverageScore = roundDiv(float64(total), float64(len(scores)))
	summary.Rank = RankTitle(summary.BestScore)
	return summary
}
