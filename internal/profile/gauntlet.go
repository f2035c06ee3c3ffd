package profile

import (
	"encoding/json"
	"sort"
	"time"
)

const defaultLegacyDifficulty = "medium"

// LegacyScoreEntry is one loosely typed score from the old topic-keyed
// gauntlet layout. Absent numbers decode as zero.
type LegacyScoreEntry struct {
	ID                string    `json:"id,omitempty"`
	Difficulty        string    `json:"difficulty,omitempty"`
	Score             int       `json:"score"`
	CorrectAnswers    int       `json:"correctAnswers"`
	QuestionsAnswered int       `json:"questionsAnswered,omitempty"`
	TotalQuestions    int       `json:"totalQuestions,omitempty"`
	Strikes           int       `json:"strikes"`
	BestStreak        int       `json:"bestStreak"`
	TimeSpent         int       `json:"timeSpent"`
	Date              Timestamp `json:"date"`
}

// GauntletScoreStore holds the gauntlet scores in one of two stored layouts:
// the canonical flat list or the legacy topic-keyed map.
type GauntletScoreStore struct {
	flat   []GauntletScore
	legacy map[string][]LegacyScoreEntry
}

func FlatScores(scores []GauntletScore) GauntletScoreStore {
	return GauntletScoreStore{flat: scores}
}

func LegacyScores(byTopic map[string][]LegacyScoreEntry) GauntletScoreStore {
	if byTopic == nil {
		byTopic = map[string][]LegacyScoreEntry{}
	}
	return GauntletScoreStore{legacy: byTopic}
}

func (s GauntletScoreStore) IsLegacy() bool {
	return s.legacy != nil
}

// Scores returns the flat list. It is empty for a legacy store; call Migrate
// first.
func (s GauntletScoreStore) Scores() []GauntletScore {
	return s.flat
}

func (s GauntletScoreStore) Legacy() map[string][]LegacyScoreEntry {
	return s.legacy
}

func (s GauntletScoreStore) MarshalJSON() ([]byte, error) {
	if s.legacy != nil {
		return json.Marshal(s.legacy)
	}
	if s.flat == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.flat)
}

func (s *GauntletScoreStore) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = decodeGauntletStore(raw)
	return nil
}

// Migrate flattens a legacy gauntlet layout into canonical records. changed
// reports whether the profile needs to be written back.
func Migrate(p Profile, now time.Time, newID func() string) (Profile, bool) {
	if !p.GauntletScores.IsLegacy() {
		return p, false
	}
	p.GauntletScores = FlatScores(flattenLegacy(p.GauntletScores.legacy, now, newID))
	return p, true
}

func flattenLegacy(byTopic map[string][]LegacyScoreEntry, now time.Time, newID func() string) []GauntletScore {
	topics := make([]string, 0, len(byTopic))
	for topic := range byTopic {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	flat := make([]GauntletScore, 0)
	for _, topic := range topics {
		for _, entry := range byTopic[topic] {
			score := GauntletScore{
				ID:                entry.ID,
				Topic:             topic,
				Difficulty:        entry.Difficulty,
				Score:             entry.Score,
				CorrectAnswers:    entry.CorrectAnswers,
				QuestionsAnswered: entry.QuestionsAnswered,
				Strikes:           entry.Strikes,
				BestStreak:        entry.BestStreak,
				TimeSpent:         entry.TimeSpent,
				Date:              entry.Date,
			}
			if score.ID == "" {
				score.ID = newID()
			}
			if score.Difficulty == "" {
				score.Difficulty = defaultLegacyDifficulty
			}
			if score.QuestionsAnswered == 0 {
				score.QuestionsAnswered = entry.TotalQuestions
			}
			if score.Date.IsZero() {
				score.Date = At(now)
			}
			flat = append(flat, score)
		}
	}
	return flat
}
