package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"quizgenius/internal/leaderboard"
	"quizgenius/internal/profile"
	"quizgenius/internal/quiz"
	"quizgenius/internal/stats"
	"quizgenius/internal/validation"
)

const (
	maxAttempts      = 3
	leaderboardLimit = 5
)

// QuizSource produces questions; *quiz.Generator and the remote client both do.
type QuizSource interface {
	Generate(ctx context.Context, req quiz.GenerateRequest) ([]quiz.QuestionRecord, error)
}

// Recorder persists finished runs.
type Recorder interface {
	RecordQuiz(ctx context.Context, userID string, sub stats.QuizSubmission) (stats.ReconcileResult, error)
	RecordGauntlet(ctx context.Context, userID string, run stats.GauntletResult) (stats.GauntletOutcome, error)
}

// PreferenceSource looks up a user's quiz defaults.
type PreferenceSource interface {
	Preferences(ctx context.Context, userID string) (profile.Preferences, error)
}

type Board interface {
	Top(ctx context.Context, topic string, limit int64) ([]leaderboard.Entry, error)
}

// Options configures one interactive session.
type Options struct {
	Source QuizSource
	// Recorder is optional; without it or a UserID results are not recorded.
	Recorder Recorder
	Board    Board
	// Preferences fills a blank difficulty or question count for UserID.
	Preferences PreferenceSource
	UserID      string
	Request     quiz.GenerateRequest
	Gauntlet    bool
	// Now drives the gauntlet clock. Defaults to time.Now.
	Now func() time.Time
}

func Run(ctx context.Context, in io.Reader, out io.Writer, opts Options) error {
	if opts.Source == nil {
		return errors.New("quiz source is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Request.Topic = strings.TrimSpace(opts.Request.Topic)
	opts.Request.Difficulty = strings.ToLower(strings.TrimSpace(opts.Request.Difficulty))
	opts.Request = fillRequest(ctx, out, opts)
	if fieldErrs := validation.Validate(opts.Request); fieldErrs != nil {
		return fmt.Errorf("invalid quiz request: %s: %s", fieldErrs[0].Field, fieldErrs[0].Message)
	}

	fmt.Fprintf(out, "Generating %d %s questions about %s...\n", opts.Request.NumberOfQuestions, opts.Request.Difficulty, opts.Request.Topic)
	questions, err := opts.Source.Generate(ctx, opts.Request)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(in)
	if opts.Gauntlet {
		return runGauntlet(ctx, reader, out, opts, questions)
	}
	return runQuiz(ctx, reader, out, opts, questions)
}

func fillRequest(ctx context.Context, out io.Writer, opts Options) quiz.GenerateRequest {
	if opts.Request.Difficulty != "" && opts.Request.NumberOfQuestions > 0 {
		return opts.Request
	}
	prefs := profile.DefaultPreferences()
	if opts.Preferences != nil && opts.UserID != "" {
		stored, err := opts.Preferences.Preferences(ctx, opts.UserID)
		if err != nil {
			fmt.Fprintf(out, "Could not load your preferences, using defaults: %v\n", err)
		} else {
			prefs = stored
		}
	}
	return prefs.FillRequest(opts.Request)
}

func runQuiz(ctx context.Context, reader *bufio.Reader, out io.Writer, opts Options, questions []quiz.QuestionRecord) error {
	started := opts.Now()
	answers := make([]string, len(questions))

	for idx, question := range questions {
		printQuestion(out, idx+1, question)

		chosenIndex, ok := getAnswer(reader, out, len(question.Options))
		fmt.Fprintln(out)
		correctText := question.OptionText(question.CorrectIndex())
		if !ok {
			fmt.Fprintf(out, "Skipping. Correct answer was %s\n\n", correctText)
			continue
		}
		answers[idx] = quiz.Letters[chosenIndex]

		if chosenIndex == question.CorrectIndex() {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Wrong. Correct answer was %s\n", correctText)
		}
		fmt.Fprintf(out, "%s\n\n", question.Explanation)
	}

	score := quiz.Grade(questions, answers)
	fmt.Fprintf(out, "\nFinal score: %d/%d (%d%%)\n", score, len(questions), stats.Accuracy(score, len(questions)))

	if opts.Recorder == nil || opts.UserID == "" {
		return nil
	}
	result, err := opts.Recorder.RecordQuiz(ctx, opts.UserID, stats.QuizSubmission{
		Attempt: stats.QuizAttempt{
			Topic:            opts.Request.Topic,
			Difficulty:       opts.Request.Difficulty,
			CorrectAnswers:   score,
			TotalQuestions:   len(questions),
			TimeSpentSeconds: int(opts.Now().Sub(started) / time.Second),
			Questions:        questions,
		},
	})
	if err != nil {
		var persistErr *stats.PersistenceError
		if !errors.As(err, &persistErr) {
			return err
		}
		fmt.Fprintln(out, "Warning: your score may not have been saved.")
		return nil
	}
	fmt.Fprintf(out, "Quizzes taken: %d, average score: %d%%, streak: %d day(s)\n",
		result.Stats.QuizzesTaken, result.Stats.AverageScore, result.Stats.LearningStreak)
	return nil
}

func runGauntlet(ctx context.Context, reader *bufio.Reader, out io.Writer, opts Options, questions []quiz.QuestionRecord) error {
	session := stats.NewGauntletSession(opts.Request.Topic, opts.Request.Difficulty)
	started := opts.Now()
	timeLeft := func() time.Duration { return stats.GauntletDuration - opts.Now().Sub(started) }

	fmt.Fprintf(out, "Gauntlet: %d strikes and you're out, %s on the clock.\n", stats.GauntletMaxStrikes, stats.GauntletDuration)
	for idx, question := range questions {
		if session.Over(timeLeft()) {
			break
		}
		printQuestion(out, idx+1, question)

		chosenIndex, ok := getAnswer(reader, out, len(question.Options))
		fmt.Fprintln(out)
		remaining := timeLeft()
		if remaining <= 0 {
			fmt.Fprintln(out, "Time's up!")
			break
		}

		correct := ok && chosenIndex == question.CorrectIndex()
		points := session.Answer(correct, remaining)
		if correct {
			fmt.Fprintf(out, "Correct! +%d (streak %d)\n\n", points, session.Streak)
		} else {
			fmt.Fprintf(out, "Wrong. Correct answer was %s. Strikes: %d/%d\n\n",
				question.OptionText(question.CorrectIndex()), session.Strikes, stats.GauntletMaxStrikes)
		}
	}

	result := session.Result(opts.Now().Sub(started))
	fmt.Fprintf(out, "\nGauntlet score: %d (%s)\n", result.Score, stats.RankTitle(result.Score))
	fmt.Fprintf(out, "Correct: %d/%d, best streak: %d\n", result.CorrectAnswers, result.QuestionsAnswered, result.BestStreak)

	if opts.Recorder == nil || opts.UserID == "" {
		return nil
	}
	if _, err := opts.Recorder.RecordGauntlet(ctx, opts.UserID, result); err != nil {
		var persistErr *stats.PersistenceError
		if !errors.As(err, &persistErr) {
			return err
		}
		fmt.Fprintln(out, "Warning: your score may not have been saved.")
		return nil
	}
	printLeaderboard(ctx, out, opts)
	return nil
}

func printLeaderboard(ctx context.Context, out io.Writer, opts Options) {
	if opts.Board == nil {
		return
	}
	entries, err := opts.Board.Top(ctx, opts.Request.Topic, leaderboardLimit)
	if err != nil || len(entries) == 0 {
		return
	}
	fmt.Fprintf(out, "\nTop gauntlet scores for %s:\n", opts.Request.Topic)
	for _, entry := range entries {
		marker := ""
		if entry.UserID == opts.UserID {
			marker = " (you)"
		}
		fmt.Fprintf(out, "%2d. %s %d%s\n", entry.Rank, entry.UserID, entry.Score, marker)
	}
}

func printQuestion(out io.Writer, number int, question quiz.QuestionRecord) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Q%d: %s\n\n", number, question.Question)
	for _, option := range question.Options {
		fmt.Fprintln(out, option)
	}
	fmt.Fprintln(out)
}

func getAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}

	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		userAnswer, err := reader.ReadString('\n')
		if err != nil && userAnswer == "" {
			return -1, false
		}

		userAnswer = strings.ToUpper(strings.TrimSpace(userAnswer))
		if len(userAnswer) == 1 {
			letter := userAnswer[0]
			if letter >= 'A' && letter <= maxLetter {
				return int(letter - 'A'), true
			}
		}
		if err != nil {
			return -1, false
		}

		if attempt < maxAttempts {
			fmt.Fprintf(out, "\nInvalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}

	return -1, false
}
