package quiz

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Reasons an element is dropped by the normalizer.
const (
	DropNotObject         = "not_object"
	DropMissingField      = "missing_field"
	DropWrongOptionCount  = "wrong_option_count"
	DropInvalidOption     = "invalid_option"
	DropDuplicateQuestion = "duplicate"
)

var (
	codeFencePattern     = regexp.MustCompile("(?i)```(?:json)?\\s*|\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[\]}])`)
	explanationPattern   = regexp.MustCompile(`"explanation"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	lineBreakPattern     = regexp.MustCompile(`[ \t]*\r?\n\s*`)
	optionLabelPattern   = regexp.MustCompile(`^\s*(?:\(?[A-Da-d]\)\s*|[A-D][.:]\s+)`)
)

// Report is the outcome of one normalization pass.
type Report struct {
	Questions []QuestionRecord
	Elements  int
	Dropped   map[string]int
	// Repaired counts correct answers defaulted to "A".
	Repaired  int
	Truncated int
}

// Normalize turns raw model text into validated question records. Invalid
// elements are dropped; only an unparseable or fully invalid response fails.
func Normalize(raw string, expectedCount int) ([]QuestionRecord, error) {
	report, err := NormalizeReport(raw, expectedCount)
	if err != nil {
		return nil, err
	}
	return report.Questions, nil
}

func NormalizeReport(raw string, expectedCount int) (Report, error) {
	cleaned := cleanModelText(raw)

	candidate, ok := firstBalancedArray(cleaned)
	if !ok {
		candidate = cleaned
	}

	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return Report{}, &ParseError{Raw: raw, Err: err}
	}

	elements, _ := parsed.([]any)
	if len(elements) == 0 {
		return Report{}, &EmptyResultError{}
	}

	report := Report{
		Elements: len(elements),
		Dropped:  make(map[string]int),
	}
	seen := make(map[string]struct{}, len(elements))

	for _, element := range elements {
		record, repaired, reason := normalizeElement(element)
		if reason != "" {
			report.Dropped[reason]++
			continue
		}

		key := strings.ToLower(strings.TrimSpace(record.Question))
		if _, dup := seen[key]; dup {
			report.Dropped[DropDuplicateQuestion]++
			continue
		}
		seen[key] = struct{}{}

		if repaired {
			report.Repaired++
		}
		report.Questions = append(report.Questions, record)
	}

	if len(report.Questions) == 0 {
		return Report{}, &EmptyResultError{Elements: report.Elements, Dropped: report.Dropped}
	}

	if expectedCount > 0 && len(report.Questions) > expectedCount {
		report.Truncated = len(report.Questions) - expectedCount
		report.Questions = report.Questions[:expectedCount]
	}
	return report, nil
}

func cleanModelText(raw string) string {
	text := codeFencePattern.ReplaceAllString(raw, "")
	text = trailingCommaPattern.ReplaceAllString(text, "$1")
	text = explanationPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := explanationPattern.FindStringSubmatch(match)
		value := strings.TrimSpace(lineBreakPattern.ReplaceAllString(sub[1], " "))
		return `"explanation": "` + value + `"`
	})
	return strings.TrimSpace(text)
}

// firstBalancedArray returns the first [...] span whose brackets balance,
// ignoring brackets inside JSON string literals.
func firstBalancedArray(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func normalizeElement(element any) (QuestionRecord, bool, string) {
	fields, ok := element.(map[string]any)
	if !ok {
		return QuestionRecord{}, false, DropNotObject
	}

	question := nonEmptyString(fields["question"])
	explanation := nonEmptyString(fields["explanation"])
	answer := nonEmptyString(fields["correctAnswer"])
	rawOptions, isList := fields["options"].([]any)
	if question == "" || explanation == "" || answer == "" || !isList {
		return QuestionRecord{}, false, DropMissingField
	}

	if len(rawOptions) != OptionCount {
		return QuestionRecord{}, false, DropWrongOptionCount
	}

	options := make([]string, 0, OptionCount)
	for idx, rawOption := range rawOptions {
		text, ok := optionString(rawOption)
		if !ok {
			return QuestionRecord{}, false, DropInvalidOption
		}
		text = stripOptionLabel(text)
		if text == "" {
			return QuestionRecord{}, false, DropInvalidOption
		}
		options = append(options, labelFor(idx)+text)
	}

	answer = strings.ToUpper(answer)
	repaired := false
	if !isLabel(answer) {
		answer = Letters[0]
		repaired = true
	}

	return QuestionRecord{
		Question:      question,
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   explanation,
	}, repaired, ""
}

func nonEmptyString(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func optionString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

func stripOptionLabel(option string) string {
	return strings.TrimSpace(optionLabelPattern.ReplaceAllString(option, ""))
}

func isLabel(answer string) bool {
	for _, letter := range Letters {
		if answer == letter {
			return true
		}
	}
	return false
}
