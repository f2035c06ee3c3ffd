package quiz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const capitalQuestion = `{"question":"Capital of France?","options":["A) London","B) Paris","C) Berlin","D) Madrid"],"correctAnswer":"B","explanation":"Paris is the capital."}`

func TestNormalizeWellFormedIsUnchanged(t *testing.T) {
	questions, err := Normalize("["+capitalQuestion+"]", 1)
	require.NoError(t, err)

	assert.Equal(t, []QuestionRecord{{
		Question:      "Capital of France?",
		Options:       []string{"A) London", "B) Paris", "C) Berlin", "D) Madrid"},
		CorrectAnswer: "B",
		Explanation:   "Paris is the capital.",
	}}, questions)
}

func TestNormalizeChattyFencedResponse(t *testing.T) {
	raw := "Sure! ```json\n[{\"question\":\"2+2?\",\"options\":[\"4\",\"3\",\"5\",\"6\"],\"correctAnswer\":\"a\",\"explanation\":\"Basic math\"}]\n```"

	questions, err := Normalize(raw, 1)
	require.NoError(t, err)
	assert.Equal(t, []QuestionRecord{{
		Question:      "2+2?",
		Options:       []string{"A) 4", "B) 3", "C) 5", "D) 6"},
		CorrectAnswer: "A",
		Explanation:   "Basic math",
	}}, questions)
}

func TestNormalizeFencingDoesNotChangeResult(t *testing.T) {
	bodies := []string{
		"[" + capitalQuestion + "]",
		`[{"question":"Q","options":["a","b","c","d"],"correctAnswer":"c","explanation":"E"},{"question":"Q2","options":[1,2,3,4],"correctAnswer":"D","explanation":"E2"}]`,
	}

	for _, body := range bodies {
		plain, err := Normalize(body, 0)
		require.NoError(t, err)

		for _, fenced := range []string{"```json\n" + body + "\n```", "```\n" + body + "\n```", "```JSON " + body + "```"} {
			got, err := Normalize(fenced, 0)
			require.NoError(t, err)
			assert.Equal(t, plain, got, "fenced input %q", fenced)
		}
	}
}

func TestNormalizeStripsFencesAndTrailingCommas(t *testing.T) {
	raw := "```json\n[\n" + `{"question":"Q1","options":["A) a","B) b","C) c","D) d",],"correctAnswer":"C","explanation":"E1",},` + "\n]\n```"

	questions, err := Normalize(raw, 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "C", questions[0].CorrectAnswer)
	assert.Equal(t, "D) d", questions[0].Options[3])
}

func TestNormalizeCollapsesMultiLineExplanation(t *testing.T) {
	raw := "[{\"question\":\"Q\",\"options\":[\"a\",\"b\",\"c\",\"d\"],\"correctAnswer\":\"A\",\"explanation\":\"first line\n   second line\n\"}]"

	questions, err := Normalize(raw, 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "first line second line", questions[0].Explanation)
}

func TestNormalizeFindsArrayInsideProse(t *testing.T) {
	raw := `Sure! Here is your quiz: [{"question":"What does [x] mean?","options":["a","b","c","d"],"correctAnswer":"D","explanation":"It is a list."}] Enjoy!`

	questions, err := Normalize(raw, 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What does [x] mean?", questions[0].Question)
}

func TestNormalizeUnwrapsObjectEnvelope(t *testing.T) {
	questions, err := Normalize(`{"questions":[`+capitalQuestion+`]}`, 0)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestNormalizeRelabelsOptionsByPosition(t *testing.T) {
	tests := []struct {
		name    string
		options string
		want    []string
	}{
		{
			name:    "unlabelled",
			options: `["London","Paris","Berlin","Madrid"]`,
			want:    []string{"A) London", "B) Paris", "C) Berlin", "D) Madrid"},
		},
		{
			name:    "mislabelled",
			options: `["B) one","A) two","(C) three","D. four"]`,
			want:    []string{"A) one", "B) two", "C) three", "D) four"},
		},
		{
			name:    "leading capital is not a label",
			options: `["Apple","Banana","D.C.","Cherry"]`,
			want:    []string{"A) Apple", "B) Banana", "C) D.C.", "D) Cherry"},
		},
		{
			name:    "numeric options",
			options: `[1, 2.5, "3", 4]`,
			want:    []string{"A) 1", "B) 2.5", "C) 3", "D) 4"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := `[{"question":"Q","options":` + tc.options + `,"correctAnswer":"A","explanation":"E"}]`
			questions, err := Normalize(raw, 1)
			require.NoError(t, err)
			require.Len(t, questions, 1)
			assert.Equal(t, tc.want, questions[0].Options)
		})
	}
}

func TestNormalizeRepairsCorrectAnswer(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{answer: " b ", want: "B"},
		{answer: "d", want: "D"},
		{answer: "e", want: "A"},
		{answer: "B) Paris", want: "A"},
	}

	for _, tc := range tests {
		t.Run(tc.answer, func(t *testing.T) {
			raw := `[{"question":"Q","options":["a","b","c","d"],"correctAnswer":"` + tc.answer + `","explanation":"E"}]`
			report, err := NormalizeReport(raw, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, report.Questions[0].CorrectAnswer)
		})
	}
}

func TestNormalizeDropsInvalidElements(t *testing.T) {
	raw := `[
		{"question":"Three options","options":["a","b","c"],"correctAnswer":"A","explanation":"E"},
		{"question":"No explanation","options":["a","b","c","d"],"correctAnswer":"A"},
		{"question":"Object option","options":["a",{"x":1},"c","d"],"correctAnswer":"A","explanation":"E"},
		{"question":"Bare labels","options":["A)","B)","C)","D)"],"correctAnswer":"A","explanation":"E"},
		"just a string",
		` + capitalQuestion + `
	]`

	report, err := NormalizeReport(raw, 6)
	require.NoError(t, err)

	require.Len(t, report.Questions, 1)
	assert.Equal(t, "Capital of France?", report.Questions[0].Question)
	assert.Equal(t, 6, report.Elements)
	assert.Equal(t, map[string]int{
		DropWrongOptionCount: 1,
		DropMissingField:     1,
		DropInvalidOption:    2,
		DropNotObject:        1,
	}, report.Dropped)
}

func TestNormalizeDropsDuplicateQuestions(t *testing.T) {
	raw := `[
		{"question":"What is Go?","options":["a","b","c","d"],"correctAnswer":"A","explanation":"first"},
		{"question":"  what is go?  ","options":["e","f","g","h"],"correctAnswer":"B","explanation":"second"}
	]`

	questions, err := Normalize(raw, 2)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "first", questions[0].Explanation)
}

func TestNormalizeTruncatesToExpectedCount(t *testing.T) {
	raw := `[
		{"question":"Q1","options":["a","b","c","d"],"correctAnswer":"A","explanation":"E"},
		{"question":"Q2","options":["a","b","c","d"],"correctAnswer":"A","explanation":"E"},
		{"question":"Q3","options":["a","b","c","d"],"correctAnswer":"A","explanation":"E"}
	]`

	report, err := NormalizeReport(raw, 2)
	require.NoError(t, err)
	assert.Len(t, report.Questions, 2)
	assert.Equal(t, 1, report.Truncated)
}

func TestNormalizeParseErrorKeepsRawText(t *testing.T) {
	raw := "I'm sorry, I cannot help with that."

	_, err := Normalize(raw, 3)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "expected ParseError, got %v", err)
	assert.Equal(t, raw, parseErr.Raw)
}

func TestNormalizeEmptyResults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty array", raw: "[]"},
		{name: "not an array", raw: `{"question":"Q"}`},
		{name: "all invalid", raw: `[{"question":"Q","options":["a"],"correctAnswer":"A","explanation":"E"}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw, 1)
			var emptyErr *EmptyResultError
			assert.True(t, errors.As(err, &emptyErr), "expected EmptyResultError, got %v", err)
		})
	}
}

func TestFirstBalancedArray(t *testing.T) {
	span, ok := firstBalancedArray(`x [1, "]", [2]] tail]`)
	require.True(t, ok)
	assert.Equal(t, `[1, "]", [2]]`, span)

	_, ok = firstBalancedArray(`[1, 2`)
	assert.False(t, ok)
}
