package profile

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"quizgenius/internal/quiz"
)

// Decode builds a Profile from a stored document. Stored documents are
// written by several client generations, so every field is optional and
// values of the wrong type fall back to their zero value. Only a document
// that is not a JSON object is an error.
func Decode(data []byte) (Profile, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Profile{}, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Profile{}, err
	}
	if doc == nil {
		return Profile{}, errors.New("profile document is not an object")
	}

	p := Profile{
		UserID:      stringValue(doc[FieldUserID]),
		Username:    stringValue(doc[FieldUsername]),
		DisplayName: stringValue(doc[FieldDisplayName]),
		Preferences: decodePreferences(mapValue(doc[FieldPreferences])),
		Stats:       decodeStats(mapValue(doc[FieldStats])),
		CreatedAt:   At(timeValue(doc[FieldCreatedAt])),
		UpdatedAt:   At(timeValue(doc[FieldUpdatedAt])),
	}

	for _, item := range sliceValue(doc[FieldSavedQuizzes]) {
		if fields := mapValue(item); fields != nil {
			p.SavedQuizzes = append(p.SavedQuizzes, decodeSavedQuiz(fields))
		}
	}
	for _, item := range sliceValue(doc[FieldRecentActivity]) {
		if fields := mapValue(item); fields != nil {
			p.RecentActivity = append(p.RecentActivity, decodeActivity(fields))
		}
	}
	p.GauntletScores = decodeGauntletStore(doc[FieldGauntletScores])
	return p, nil
}

func decodeStats(fields map[string]any) UserStats {
	return UserStats{
		QuizzesTaken:   intValue(fields["quizzesTaken"]),
		QuizzesCreated: intValue(fields["quizzesCreated"]),
		TopicsMastered: intValue(fields["topicsMastered"]),
		AverageScore:   intValue(fields["averageScore"]),
		LearningStreak: intValue(fields["learningStreak"]),
		TotalQuestions: intValue(fields["totalQuestions"]),
		CorrectAnswers: intValue(fields["correctAnswers"]),
		TimeSpent:      intValue(fields["timeSpent"]),
		LastQuizDate:   At(timeValue(fields["lastQuizDate"])),
	}
}

func decodeSavedQuiz(fields map[string]any) SavedQuiz {
	saved := SavedQuiz{
		ID:            stringValue(fields["id"]),
		Topic:         stringValue(fields["topic"]),
		Difficulty:    stringValue(fields["difficulty"]),
		CreatedAt:     At(timeValue(fields["createdAt"])),
		LastAttemptAt: At(timeValue(fields["lastAttemptAt"])),
	}
	for _, item := range sliceValue(fields["questions"]) {
		q := mapValue(item)
		if q == nil {
			continue
		}
		record := quiz.QuestionRecord{
			Question:      stringValue(q["question"]),
			CorrectAnswer: stringValue(q["correctAnswer"]),
			Explanation:   stringValue(q["explanation"]),
		}
		for _, option := range sliceValue(q["options"]) {
			record.Options = append(record.Options, stringValue(option))
		}
		saved.Questions = append(saved.Questions, record)
	}
	for _, item := range sliceValue(fields["attempts"]) {
		a := mapValue(item)
		if a == nil {
			continue
		}
		saved.Attempts = append(saved.Attempts, QuizAttempt{
			Timestamp: At(timeValue(a["timestamp"])),
			Score:     intValue(a["score"]),
			TimeSpent: intValue(a["timeSpent"]),
		})
	}
	return saved
}

func decodeActivity(fields map[string]any) ActivityEntry {
	return ActivityEntry{
		ID:             stringValue(fields["id"]),
		Type:           canonicalActivityKind(stringValue(fields["type"])),
		Topic:          stringValue(fields["topic"]),
		Score:          intValue(fields["score"]),
		Difficulty:     stringValue(fields["difficulty"]),
		Details:        stringValue(fields["details"]),
		QuizID:         stringValue(fields["quizId"]),
		CorrectAnswers: intValue(fields["correctAnswers"]),
		TotalQuestions: intValue(fields["totalQuestions"]),
		Timestamp:      At(timeValue(fields["timestamp"])),
	}
}

// decodeGauntletStore classifies the stored gauntlet field: an array is the
// flat layout, an object is the legacy topic map, anything else is empty.
func decodeGauntletStore(value any) GauntletScoreStore {
	switch v := value.(type) {
	case []any:
		scores := make([]GauntletScore, 0, len(v))
		for _, item := range v {
			if fields := mapValue(item); fields != nil {
				scores = append(scores, decodeGauntletScore(fields))
			}
		}
		return FlatScores(scores)
	case map[string]any:
		byTopic := make(map[string][]LegacyScoreEntry, len(v))
		for topic, entries := range v {
			list := make([]LegacyScoreEntry, 0)
			for _, item := range sliceValue(entries) {
				if fields := mapValue(item); fields != nil {
					list = append(list, decodeLegacyEntry(fields))
				}
			}
			byTopic[topic] = list
		}
		return LegacyScores(byTopic)
	default:
		return FlatScores(nil)
	}
}

func decodeGauntletScore(fields map[string]any) GauntletScore {
	return GauntletScore{
		ID:                stringValue(fields["id"]),
		Topic:             stringValue(fields["topic"]),
		Difficulty:        stringValue(fields["difficulty"]),
		Score:             intValue(fields["score"]),
		CorrectAnswers:    intValue(fields["correctAnswers"]),
		QuestionsAnswered: intValue(fields["questionsAnswered"]),
		Strikes:           intValue(fields["strikes"]),
		BestStreak:        intValue(fields["bestStreak"]),
		TimeSpent:         intValue(fields["timeSpent"]),
		Date:              At(timeValue(fields["date"])),
	}
}

func decodeLegacyEntry(fields map[string]any) LegacyScoreEntry {
	return LegacyScoreEntry{
		ID:                stringValue(fields["id"]),
		Difficulty:        stringValue(fields["difficulty"]),
		Score:             intValue(fields["score"]),
		CorrectAnswers:    intValue(fields["correctAnswers"]),
		QuestionsAnswered: intValue(fields["questionsAnswered"]),
		TotalQuestions:    intValue(fields["totalQuestions"]),
		Strikes:           intValue(fields["strikes"]),
		BestStreak:        intValue(fields["bestStreak"]),
		TimeSpent:         intValue(fields["timeSpent"]),
		Date:              At(timeValue(fields["date"])),
	}
}

func mapValue(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func sliceValue(value any) []any {
	s, _ := value.([]any)
	return s
}

func stringValue(value any) string {
	s, _ := value.(string)
	return s
}

func intValue(value any) int {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(math.Round(v))
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return intValue(parsed)
	default:
		return 0
	}
}

// Epoch numbers above this are milliseconds, below it seconds.
const millisThreshold = 1e11

// timeValue understands epoch numbers (seconds or milliseconds), RFC 3339
// and numeric strings, and {seconds, nanoseconds} objects.
func timeValue(value any) time.Time {
	switch v := value.(type) {
	case float64:
		return epochTime(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return parsed.UTC()
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return epochTime(n)
		}
		return time.Time{}
	case map[string]any:
		seconds, ok := v["seconds"]
		if !ok {
			seconds = v["_seconds"]
		}
		nanos, ok := v["nanoseconds"]
		if !ok {
			nanos = v["_nanoseconds"]
		}
		sec, isNum := seconds.(float64)
		if !isNum {
			return time.Time{}
		}
		ns, _ := nanos.(float64)
		return time.Unix(int64(sec), int64(ns)).UTC()
	default:
		return time.Time{}
	}
}

func epochTime(n float64) time.Time {
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}
	}
	if n >= millisThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
