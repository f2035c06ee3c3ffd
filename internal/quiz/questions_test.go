package quiz

import (
	"testing"
)

func sampleRecords() []QuestionRecord {
	return []QuestionRecord{
		{Question: "Q1", Options: []string{"A) a", "B) b", "C) c", "D) d"}, CorrectAnswer: "B", Explanation: "E"},
		{Question: "Q2", Options: []string{"A) a", "B) b", "C) c", "D) d"}, CorrectAnswer: "D", Explanation: "E"},
		{Question: "Q3", Options: []string{"A) a", "B) b", "C) c", "D) d"}, CorrectAnswer: "A", Explanation: "E"},
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    int
	}{
		{name: "all correct", answers: []string{"B", "D", "A"}, want: 3},
		{name: "case and whitespace", answers: []string{" b", "d ", "x"}, want: 2},
		{name: "fewer answers", answers: []string{"B"}, want: 1},
		{name: "no answers", answers: nil, want: 0},
		{name: "extra answers ignored", answers: []string{"A", "A", "A", "A", "A"}, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Grade(sampleRecords(), tc.answers); got != tc.want {
				t.Fatalf("Grade() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNormalizeLetter(t *testing.T) {
	cases := map[string]string{
		"a":   "A",
		" C ": "C",
		"AB":  "",
		"":    "",
		"1":   "",
	}
	for input, want := range cases {
		if got := NormalizeLetter(input); got != want {
			t.Fatalf("NormalizeLetter(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCorrectIndexAndOptionText(t *testing.T) {
	record := sampleRecords()[1]
	if idx := record.CorrectIndex(); idx != 3 {
		t.Fatalf("CorrectIndex() = %d, want 3", idx)
	}
	if text := record.OptionText(3); text != "d" {
		t.Fatalf("OptionText(3) = %q, want d", text)
	}
	if text := record.OptionText(9); text != "" {
		t.Fatalf("OptionText(9) = %q, want empty", text)
	}

	record.CorrectAnswer = "Z"
	if idx := record.CorrectIndex(); idx != -1 {
		t.Fatalf("CorrectIndex() = %d, want -1", idx)
	}
}
