package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaultsMissingFields(t *testing.T) {
	p, err := Decode([]byte(`{"uid":"u1","stats":{"quizzesTaken":"3","averageScore":71.6,"learningStreak":true}}`))
	require.NoError(t, err)

	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, 3, p.Stats.QuizzesTaken)
	assert.Equal(t, 72, p.Stats.AverageScore)
	assert.Equal(t, 0, p.Stats.LearningStreak)
	assert.True(t, p.Stats.LastQuizDate.IsZero())
	assert.Empty(t, p.SavedQuizzes)
	assert.Empty(t, p.RecentActivity)
	assert.False(t, p.GauntletScores.IsLegacy())
	assert.Empty(t, p.GauntletScores.Scores())
}

func TestDecodeEmptyDocument(t *testing.T) {
	p, err := Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, Profile{}, p)
}

func TestDecodeRejectsNonObject(t *testing.T) {
	_, err := Decode([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = Decode([]byte(`null`))
	assert.Error(t, err)
}

func TestTimeValueShapes(t *testing.T) {
	want := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
	}{
		{name: "epoch millis", value: float64(want.UnixMilli())},
		{name: "epoch seconds", value: float64(want.Unix())},
		{name: "rfc3339", value: "2024-03-10T12:00:00Z"},
		{name: "numeric string", value: "1710072000000"},
		{name: "seconds object", value: map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)}},
		{name: "underscored seconds object", value: map[string]any{"_seconds": float64(want.Unix())}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, want.Equal(timeValue(tc.value)), "got %v", timeValue(tc.value))
		})
	}

	assert.True(t, timeValue("yesterday").IsZero())
	assert.True(t, timeValue(nil).IsZero())
	assert.True(t, timeValue(float64(-5)).IsZero())
}

func TestTimestampJSON(t *testing.T) {
	ts := At(time.UnixMilli(1710072000123).UTC())

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, "1710072000123", string(data))

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var decoded Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"not a date"`), &decoded))
	assert.True(t, decoded.IsZero())
}

func TestDecodeReadsWhatProfileEncodes(t *testing.T) {
	now := time.UnixMilli(1710072000000).UTC()
	original := Profile{
		UserID: "u1",
		Stats:  UserStats{QuizzesTaken: 2, AverageScore: 85, LastQuizDate: At(now)},
		RecentActivity: []ActivityEntry{{
			ID: "a1", Type: ActivityQuizTaken, Topic: "go", Score: 90, QuizID: "q1", Timestamp: At(now),
		}},
		GauntletScores: FlatScores([]GauntletScore{{ID: "g1", Topic: "go", Score: 300, Date: At(now)}}),
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original.Stats, decoded.Stats)
	assert.Equal(t, original.RecentActivity, decoded.RecentActivity)
	assert.Equal(t, original.GauntletScores.Scores(), decoded.GauntletScores.Scores())
}

func TestDecodeActivityKinds(t *testing.T) {
	p, err := Decode([]byte(`{"uid":"u1","recentActivity":[
		{"id":"a1","type":"quiz_taken"},
		{"id":"a2","type":"quiz-taken"},
		{"id":"a3","type":"achievement"},
		{"id":"a4","type":"topic-mastered"},
		{"id":"a5","type":"Streak"},
		{"id":"a6","type":"badge"}
	]}`))
	require.NoError(t, err)
	require.Len(t, p.RecentActivity, 6)

	kinds := make([]ActivityKind, 0, len(p.RecentActivity))
	for _, a := range p.RecentActivity {
		kinds = append(kinds, a.Type)
	}
	assert.Equal(t, []ActivityKind{
		ActivityQuizTaken,
		ActivityQuizTaken,
		activityAchievementEarned,
		activityTopicMastered,
		activityStreak,
		"badge",
	}, kinds)
}
