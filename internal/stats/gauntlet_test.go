package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizgenius/internal/profile"
)

func TestGauntletSessionScoring(t *testing.T) {
	session := NewGauntletSession("Go", "hard")

	assert.Equal(t, 150, session.Answer(true, GauntletDuration))
	assert.Equal(t, 135, session.Answer(true, 90*time.Second))
	assert.Equal(t, 0, session.Answer(false, 80*time.Second))
	assert.Equal(t, 100, session.Answer(true, 0*time.Second+time.Millisecond))

	assert.Equal(t, 385, session.Score)
	assert.Equal(t, 3, session.CorrectAnswers)
	assert.Equal(t, 4, session.QuestionsAnswered)
	assert.Equal(t, 1, session.Strikes)
	assert.Equal(t, 2, session.BestStreak)
	assert.Equal(t, 1, session.Streak)
}

func TestGauntletStreakBonusIsCapped(t *testing.T) {
	session := NewGauntletSession("Go", "easy")
	for i := 0; i < 12; i++ {
		session.Answer(true, time.Millisecond)
	}

	assert.Equal(t, 200, session.Answer(true, time.Millisecond))
}

func TestGauntletSessionEnds(t *testing.T) {
	session := NewGauntletSession("Go", "easy")
	for i := 0; i < GauntletMaxStrikes; i++ {
		session.Answer(false, time.Minute)
	}

	assert.True(t, session.Over(time.Minute))
	assert.Equal(t, 0, session.Answer(true, time.Minute))
	assert.Equal(t, GauntletMaxStrikes, session.QuestionsAnswered)

	fresh := NewGauntletSession("Go", "easy")
	assert.True(t, fresh.Over(0))

	result := session.Result(5 * time.Minute)
	assert.Equal(t, 180, result.TimeSpentSeconds)
	assert.Equal(t, GauntletMaxStrikes, result.Strikes)
}

func TestRecordGauntletMigratesAndAppends(t *testing.T) {
	legacy := profile.LegacyScores(map[string][]profile.LegacyScoreEntry{
		"History": {{Score: 50, CorrectAnswers: 3}},
	})

	outcome := RecordGauntlet(GauntletInput{
		Result: GauntletResult{
			Topic:             "Go",
			Difficulty:        "hard",
			Score:             420,
			CorrectAnswers:    4,
			QuestionsAnswered: 6,
			Strikes:           2,
			BestStreak:        3,
			TimeSpentSeconds:  150,
		},
		PriorScores: legacy,
		Now:         testNow,
		NewID:       sequentialIDs(),
	})

	require.True(t, outcome.Migrated)
	require.Len(t, outcome.Scores, 2)

	migrated := outcome.Scores[0]
	assert.Equal(t, "id-1", migrated.ID)
	assert.Equal(t, "History", migrated.Topic)
	assert.Equal(t, "medium", migrated.Difficulty)
	assert.Equal(t, 50, migrated.Score)
	assert.Equal(t, 3, migrated.CorrectAnswers)
	assert.Equal(t, 0, migrated.QuestionsAnswered)

	assert.Equal(t, profile.GauntletScore{
		ID:                "id-2",
		Topic:             "Go",
		Difficulty:        "hard",
		Score:             420,
		CorrectAnswers:    4,
		QuestionsAnswered: 6,
		Strikes:           2,
		BestStreak:        3,
		TimeSpent:         150,
		Date:              profile.At(testNow),
	}, outcome.Scores[1])
	assert.Equal(t, outcome.Scores[1], outcome.Score)

	require.Len(t, outcome.Activity, 1)
	assert.Equal(t, "Gauntlet Challenge: 4 correct, score: 420", outcome.Activity[0].Details)
	assert.Equal(t, "gauntlet", outcome.Activity[0].Difficulty)
	assert.Equal(t, profile.ActivityQuizTaken, outcome.Activity[0].Type)
}

func TestRecordGauntletKeepsPriorFlatScores(t *testing.T) {
	prior := []profile.GauntletScore{{ID: "g1", Score: 10}, {ID: "g2", Score: 20}}

	outcome := RecordGauntlet(GauntletInput{
		Result:      GauntletResult{Topic: "Go", Score: 30},
		PriorScores: profile.FlatScores(prior),
		Now:         testNow,
		NewID:       sequentialIDs(),
	})

	assert.False(t, outcome.Migrated)
	require.Len(t, outcome.Scores, 3)
	assert.Equal(t, prior, outcome.Scores[:2])
	assert.Len(t, prior, 2)
}

func TestRankTitle(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{score: 1500, want: "Legendary Master"},
		{score: 1000, want: "Legendary Master"},
		{score: 999, want: "Grandmaster"},
		{score: 600, want: "Expert Challenger"},
		{score: 450, want: "Skilled Quizzer"},
		{score: 200, want: "Knowledge Seeker"},
		{score: 199, want: "Novice"},
		{score: 0, want: "Novice"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, RankTitle(tc.score), "score %d", tc.score)
	}
}

func TestTopScoresAndSummary(t *testing.T) {
	scores := []profile.GauntletScore{
		{ID: "a", Score: 300},
		{ID: "b", Score: 900},
		{ID: "c", Score: 300},
		{ID: "d", Score: 100},
	}

	top := TopScores(scores, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{top[0].ID, top[1].ID, top[2].ID})
	assert.Equal(t, "a", scores[0].ID)

	assert.Equal(t, GauntletSummary{Played: 4, BestScore: 900, AverageScore: 400, Rank: "Grandmaster"}, Summarize(scores))
	assert.Equal(t, GauntletSummary{Rank: "Novice"}, Summarize(nil))
}
