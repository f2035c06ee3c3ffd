package profile

import (
	"regexp"
	"strconv"
	"strings"

	"quizgenius/internal/quiz"
)

const (
	FieldPreferences = "preferences"

	// FieldOwner names the user a username reservation belongs to.
	FieldOwner = "owner"

	usernameKeyPrefix = "username:"
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Preferences drive quiz defaults for a user.
type Preferences struct {
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard expert"`
	QuizLength string   `json:"quizLength" validate:"omitempty,oneof=5-10 10-20 20-30 30-50"`
	TimeLimit  string   `json:"timeLimit" validate:"omitempty,oneof=none relaxed standard challenge"`
	Interests  []string `json:"interests" validate:"max=50,dive,required,max=100"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Difficulty: "medium",
		QuizLength: "10-20",
		TimeLimit:  "standard",
		Interests:  []string{},
	}
}

// WithDefaults fills every unset preference from DefaultPreferences.
func (p Preferences) WithDefaults() Preferences {
	def := DefaultPreferences()
	if p.Difficulty == "" {
		p.Difficulty = def.Difficulty
	}
	if p.QuizLength == "" {
		p.QuizLength = def.QuizLength
	}
	if p.TimeLimit == "" {
		p.TimeLimit = def.TimeLimit
	}
	if p.Interests == nil {
		p.Interests = def.Interests
	}
	return p
}

// QuestionCount is the lower bound of QuizLength, or 0 when it does not
// parse.
func (p Preferences) QuestionCount() int {
	low, _, _ := strings.Cut(p.QuizLength, "-")
	n, err := strconv.Atoi(strings.TrimSpace(low))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FillRequest sets a blank difficulty or question count on req from the
// preferences.
func (p Preferences) FillRequest(req quiz.GenerateRequest) quiz.GenerateRequest {
	p = p.WithDefaults()
	if req.Difficulty == "" {
		req.Difficulty = p.Difficulty
	}
	if req.NumberOfQuestions <= 0 {
		req.NumberOfQuestions = p.QuestionCount()
		if req.NumberOfQuestions <= 0 {
			req.NumberOfQuestions = DefaultPreferences().QuestionCount()
		}
	}
	return req
}

// ValidUsername reports whether name can be reserved.
func ValidUsername(name string) bool {
	return len(name) >= MinUsernameLength && len(name) <= MaxUsernameLength && usernamePattern.MatchString(name)
}

// UsernameKey is the store key of a username reservation. Usernames are
// unique regardless of case.
func UsernameKey(name string) string {
	return usernameKeyPrefix + strings.ToLower(name)
}

// IsReservedKey reports whether key belongs to the reservation keyspace.
func IsReservedKey(key string) bool {
	return strings.Contains(key, ":")
}

func decodePreferences(fields map[string]any) *Preferences {
	if fields == nil {
		return nil
	}
	prefs := Preferences{
		Difficulty: strings.ToLower(stringValue(fields["difficulty"])),
		QuizLength: stringValue(fields["quizLength"]),
		TimeLimit:  strings.ToLower(stringValue(fields["timeLimit"])),
		Interests:  []string{},
	}
	for _, item := range sliceValue(fields["interests"]) {
		if s := stringValue(item); s != "" {
			prefs.Interests = append(prefs.Interests, s)
		}
	}
	return &prefs
}
