package quiz

import (
	"fmt"
	"sort"
	"strings"
)

// ConfigurationError means generation cannot run because a required setting
// (the LLM API key) is missing.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("quiz generation is not configured: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ParseError means the cleaned model output was not valid JSON. Raw keeps the
// unmodified model text for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyResultError means the model output parsed but yielded no usable
// questions.
type EmptyResultError struct {
	Elements int
	Dropped  map[string]int
}

func (e *EmptyResultError) Error() string {
	if e.Elements == 0 {
		return "model returned no questions"
	}
	reasons := make([]string, 0, len(e.Dropped))
	for reason, count := range e.Dropped {
		reasons = append(reasons, fmt.Sprintf("%s=%d", reason, count))
	}
	sort.Strings(reasons)
	return fmt.Sprintf("all %d questions in model response were invalid (%s)", e.Elements, strings.Join(reasons, ", "))
}
