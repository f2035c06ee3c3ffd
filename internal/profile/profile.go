package profile

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"quizgenius/internal/quiz"
)

// Top-level document fields.
const (
	FieldUserID         = "uid"
	FieldUsername       = "username"
	FieldDisplayName    = "displayName"
	FieldStats          = "stats"
	FieldSavedQuizzes   = "savedQuizzes"
	FieldRecentActivity = "recentActivity"
	FieldGauntletScores = "gauntletScores"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
)

// ActivityLimit is the size of the recent activity ring.
const ActivityLimit = 10

type ActivityKind string

// ActivityQuizTaken is the only kind this service writes. The others are
// read from documents written by other clients.
const (
	ActivityQuizTaken ActivityKind = "quiz_taken"

	activityQuizCreated       ActivityKind = "quiz_created"
	activityAchievementEarned ActivityKind = "achievement_earned"
	activityTopicMastered     ActivityKind = "topic_mastered"
	activityStreak            ActivityKind = "streak"
)

// activityAliases maps the hyphenated kinds of older clients onto the
// canonical names.
var activityAliases = map[string]ActivityKind{
	"quiz-taken":     ActivityQuizTaken,
	"quiz-created":   activityQuizCreated,
	"achievement":    activityAchievementEarned,
	"topic-mastered": activityTopicMastered,
}

func canonicalActivityKind(raw string) ActivityKind {
	kind := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := activityAliases[kind]; ok {
		return alias
	}
	switch ActivityKind(kind) {
	case ActivityQuizTaken, activityQuizCreated, activityAchievementEarned, activityTopicMastered, activityStreak:
		return ActivityKind(kind)
	}
	return ActivityKind(raw)
}

// Timestamp is an instant persisted as epoch milliseconds. The zero value
// encodes as null.
type Timestamp struct {
	time.Time
}

func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}

// UnmarshalJSON accepts every shape timeValue understands and never fails;
// unrecognised input becomes the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = timeValue(raw)
	return nil
}

type UserStats struct {
	QuizzesTaken   int       `json:"quizzesTaken"`
	QuizzesCreated int       `json:"quizzesCreated"`
	TopicsMastered int       `json:"topicsMastered"`
	AverageScore   int       `json:"averageScore"`
	LearningStreak int       `json:"learningStreak"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	TimeSpent      int       `json:"timeSpent"`
	LastQuizDate   Timestamp `json:"lastQuizDate"`
}

type QuizAttempt struct {
	Timestamp Timestamp `json:"timestamp"`
	Score     int       `json:"score"`
	TimeSpent int       `json:"timeSpent"`
}

type SavedQuiz struct {
	ID            string                `json:"id"`
	Topic         string                `json:"topic"`
	Difficulty    string                `json:"difficulty"`
	Questions     []quiz.QuestionRecord `json:"questions"`
	CreatedAt     Timestamp             `json:"createdAt"`
	LastAttemptAt Timestamp             `json:"lastAttemptAt"`
	Attempts      []QuizAttempt         `json:"attempts"`
}

type ActivityEntry struct {
	ID             string       `json:"id"`
	Type           ActivityKind `json:"type"`
	Topic          string       `json:"topic"`
	Score          int          `json:"score"`
	Difficulty     string       `json:"difficulty"`
	Details        string       `json:"details"`
	QuizID         string       `json:"quizId,omitempty"`
	CorrectAnswers int          `json:"correctAnswers,omitempty"`
	TotalQuestions int          `json:"totalQuestions,omitempty"`
	Timestamp      Timestamp    `json:"timestamp"`
}

type GauntletScore struct {
	ID                string    `json:"id"`
	Topic             string    `json:"topic"`
	Difficulty        string    `json:"difficulty"`
	Score             int       `json:"score"`
	CorrectAnswers    int       `json:"correctAnswers"`
	QuestionsAnswered int       `json:"questionsAnswered"`
	Strikes           int       `json:"strikes"`
	BestStreak        int       `json:"bestStreak"`
	TimeSpent         int       `json:"timeSpent"`
	Date              Timestamp `json:"date"`
}

// Profile is the decoded per-user document.
type Profile struct {
	UserID         string             `json:"uid"`
	Username       string             `json:"username,omitempty"`
	DisplayName    string             `json:"displayName,omitempty"`
	Preferences    *Preferences       `json:"preferences,omitempty"`
	Stats          UserStats          `json:"stats"`
	SavedQuizzes   []SavedQuiz        `json:"savedQuizzes"`
	RecentActivity []ActivityEntry    `json:"recentActivity"`
	GauntletScores GauntletScoreStore `json:"gauntletScores"`
	CreatedAt      Timestamp          `json:"createdAt"`
	UpdatedAt      Timestamp          `json:"updatedAt"`

	// Version is the store revision the profile was read at; 0 when the
	// document does not exist yet.
	Version int64 `json:"-"`
}

// EffectivePreferences returns the stored preferences with defaults for
// anything unset.
func (p Profile) EffectivePreferences() Preferences {
	if p.Preferences == nil {
		return DefaultPreferences()
	}
	return p.Preferences.WithDefaults()
}

// FindSavedQuiz returns the saved quiz with id, if any.
func (p Profile) FindSavedQuiz(id string) (SavedQuiz, bool) {
	for _, saved := range p.SavedQuizzes {
		if saved.ID == id {
			return saved, true
		}
	}
	return SavedQuiz{}, false
}
