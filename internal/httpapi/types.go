package httpapi

import (
	"quizgenius/internal/leaderboard"
	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
	"quizgenius/internal/validation"
)

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// generateQuizRequest lets a known user leave difficulty and question count
// blank and have them filled from their preferences.
type generateQuizRequest struct {
	quiz.GenerateRequest
	UserID string `json:"userId,omitempty"`
}

type generateQuizResponse struct {
	Questions []quiz.QuestionRecord `json:"questions"`
}

type quizResultRequest struct {
	Topic          string                `json:"topic" validate:"required,max=200"`
	Difficulty     string                `json:"difficulty" validate:"required,max=50"`
	CorrectAnswers int                   `json:"correctAnswers" validate:"min=0,ltefield=TotalQuestions"`
	TotalQuestions int                   `json:"totalQuestions" validate:"min=0,max=500"`
	TimeSpent      int                   `json:"timeSpent" validate:"min=0"`
	Questions      []quiz.QuestionRecord `json:"questions,omitempty" validate:"omitempty,max=50,dive"`
	Answers        []string              `json:"answers,omitempty"`
	Retry          bool                  `json:"retry"`
	QuizID         string                `json:"quizId,omitempty" validate:"required_if=Retry true"`
}

type quizResultResponse struct {
	QuizID         string            `json:"quizId,omitempty"`
	Accuracy       int               `json:"accuracy"`
	CorrectAnswers int               `json:"correctAnswers"`
	TotalQuestions int               `json:"totalQuestions"`
	Stats          profile.UserStats `json:"stats"`
	Saved          bool              `json:"saved"`
	Warning        string            `json:"warning,omitempty"`
}

type gauntletResultRequest struct {
	Topic             string `json:"topic" validate:"required,max=200"`
	Difficulty        string `json:"difficulty" validate:"required,max=50"`
	Score             int    `json:"score" validate:"min=0"`
	CorrectAnswers    int    `json:"correctAnswers" validate:"min=0"`
	QuestionsAnswered int    `json:"questionsAnswered" validate:"min=0,gtefield=CorrectAnswers"`
	Strikes           int    `json:"strikes" validate:"min=0,max=3"`
	BestStreak        int    `json:"bestStreak" validate:"min=0,ltefield=CorrectAnswers"`
	TimeSpent         int    `json:"timeSpent" validate:"min=0"`
}

type gauntletResultResponse struct {
	Score   profile.GauntletScore `json:"score"`
	Rank    string                `json:"rank"`
	Saved   bool                  `json:"saved"`
	Warning string                `json:"warning,omitempty"`
}

type savedQuizSummary struct {
	ID            string            `json:"id"`
	Topic         string            `json:"topic"`
	Difficulty    string            `json:"difficulty"`
	QuestionCount int               `json:"questionCount"`
	AttemptCount  int               `json:"attemptCount"`
	BestScore     int               `json:"bestScore"`
	CreatedAt     profile.Timestamp `json:"createdAt"`
	LastAttemptAt profile.Timestamp `json:"lastAttemptAt"`
}

type profileResponse struct {
	UserID         string                  `json:"uid"`
	Username       string                  `json:"username,omitempty"`
	DisplayName    string                  `json:"displayName,omitempty"`
	Preferences    profile.Preferences     `json:"preferences"`
	Stats          profile.UserStats       `json:"stats"`
	RecentActivity []profile.ActivityEntry `json:"recentActivity"`
	SavedQuizzes   []savedQuizSummary      `json:"savedQuizzes"`
	QuizDetails    []profile.SavedQuiz     `json:"savedQuizDetails,omitempty"`
}

type gauntletScoresResponse struct {
	Scores  []profile.GauntletScore `json:"scores"`
	Summary stats.GauntletSummary   `json:"summary"`
}

type gauntletLeaderboardResponse struct {
	Topic   string              `json:"topic,omitempty"`
	Entries []leaderboard.Entry `json:"entries"`
}

type gauntletRankResponse struct {
	UserID string `json:"userId"`
	Topic  string `json:"topic,omitempty"`
	// Rank is 1-indexed; 0 means the user has no ranked score.
	Rank int64 `json:"rank"`
}

type profileSetupRequest struct {
	Username    string              `json:"username" validate:"required,max=30"`
	DisplayName string              `json:"displayName" validate:"max=100"`
	Preferences profile.Preferences `json:"preferences"`
}

type usernameResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}
