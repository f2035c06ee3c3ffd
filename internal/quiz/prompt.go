package quiz

import (
	"fmt"
	"strings"
)

const SystemPrompt = "You are a quiz generator that creates educational multiple-choice questions. Always respond with valid JSON arrays."

// GenerateRequest describes the quiz a user asked for.
type GenerateRequest struct {
	Topic             string `json:"topic" validate:"required,max=200"`
	Difficulty        string `json:"difficulty" validate:"required,oneof=easy medium hard expert"`
	NumberOfQuestions int    `json:"numberOfQuestions" validate:"required,min=1,max=50"`
	PreferredStyle    string `json:"preferredStyle,omitempty" validate:"omitempty,oneof=conceptual practical mixed"`
}

var difficultyGuidance = map[string]string{
	"easy":   "Focus on definitions and basic recall.",
	"medium": "Mix recall with applying concepts to simple situations.",
	"hard":   "Require analysis and comparison of related concepts.",
	"expert": "Probe edge cases and deep understanding a specialist would have.",
}

var styleGuidance = map[string]string{
	"conceptual": "Favor questions about underlying ideas and theory.",
	"practical":  "Favor questions grounded in real-world scenarios.",
	"mixed":      "Balance theory and real-world scenarios.",
}

// BuildPrompt renders the user message for a generation request.
func BuildPrompt(req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d multiple-choice questions about %q at %s difficulty.\n",
		req.NumberOfQuestions, strings.TrimSpace(req.Topic), req.Difficulty)
	if guidance, ok := difficultyGuidance[req.Difficulty]; ok {
		b.WriteString(guidance)
		b.WriteString("\n")
	}
	if guidance, ok := styleGuidance[req.PreferredStyle]; ok {
		b.WriteString(guidance)
		b.WriteString("\n")
	}
	b.WriteString(`
Rules:
- Every question has exactly 4 options labelled "A) ", "B) ", "C) ", "D) ".
- correctAnswer is a single letter: A, B, C or D.
- explanation says briefly why the correct answer is right.
- Do not repeat questions.

Respond with only a JSON array in this format:
[
  {
    "question": "Question text",
    "options": ["A) First", "B) Second", "C) Third", "D) Fourth"],
    "correctAnswer": "A",
    "explanation": "Why A is correct"
  }
]`)
	return b.String()
}
