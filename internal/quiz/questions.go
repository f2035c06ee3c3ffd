package quiz

import (
	"strings"
)

// Letters are the positional option labels, in order.
var Letters = []string{"A", "B", "C", "D"}

const OptionCount = 4

// QuestionRecord is one validated multiple-choice question. Options carry
// their positional label ("A) ...") and CorrectAnswer names one of them.
type QuestionRecord struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswer string   `json:"correctAnswer" validate:"oneof=A B C D"`
	Explanation   string   `json:"explanation" validate:"required"`
}

// CorrectIndex returns the option index named by CorrectAnswer, or -1.
func (q QuestionRecord) CorrectIndex() int {
	letter := NormalizeLetter(q.CorrectAnswer)
	if letter == "" {
		return -1
	}
	idx := int(letter[0] - 'A')
	if idx < 0 || idx >= len(q.Options) {
		return -1
	}
	return idx
}

// OptionText returns the option at index without its label.
func (q QuestionRecord) OptionText(index int) string {
	if index < 0 || index >= len(q.Options) {
		return ""
	}
	return stripOptionLabel(q.Options[index])
}

// Grade counts answers matching the correct letter of the question at the
// same position. Extra answers or questions are ignored.
func Grade(questions []QuestionRecord, answers []string) int {
	correct := 0
	for idx, question := range questions {
		if idx >= len(answers) {
			break
		}
		if letter := NormalizeLetter(answers[idx]); letter != "" && letter == NormalizeLetter(question.CorrectAnswer) {
			correct++
		}
	}
	return correct
}

// NormalizeLetter upper-cases and trims a single answer letter. Anything that
// is not exactly one letter yields "".
func NormalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return ""
	}
	return letter
}

func labelFor(index int) string {
	return Letters[index] + ") "
}
