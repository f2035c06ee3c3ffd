package stats

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizgenius/internal/logger"
	"quizgenius/internal/metrics"
	"quizgenius/internal/profile"
)

const (
	maxWriteAttempts  = 3
	TopGauntletLimit  = 10
	writeKindQuiz     = "quiz"
	writeKindGauntlet = "gauntlet"
	writeKindMigrate  = "migrate"
	writeKindSetup    = "setup"
	writeKindReserve  = "reserve"
	writeKindPrefs    = "preferences"
)

// Leaderboard receives every saved gauntlet score.
type Leaderboard interface {
	RecordGauntlet(ctx context.Context, userID string, score profile.GauntletScore) error
}

type Option func(*Service)

func WithLeaderboard(board Leaderboard) Option {
	return func(s *Service) { s.board = board }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service runs the reconcilers against the profile store. Writes are
// compare-and-swap on the document version and are retried from a fresh
// read when another writer got there first.
type Service struct {
	store   profile.Store
	board   Leaderboard
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

func NewService(store profile.Store, log *logger.Logger, m *metrics.Metrics, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		store:   store,
		log:     log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type QuizSubmission struct {
	Attempt QuizAttempt
	Retry   bool
	QuizID  string
}

// RecordQuiz reconciles a finished quiz into the user's profile. On a
// *PersistenceError the returned result is complete but was not saved.
func (s *Service) RecordQuiz(ctx context.Context, userID string, sub QuizSubmission) (ReconcileResult, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return ReconcileResult{}, err
	}

	var result ReconcileResult
	err = s.readModifyWrite(ctx, userID, writeKindQuiz, func(p profile.Profile, now time.Time) map[string]any {
		result = Reconcile(ReconcileInput{
			Attempt:        sub.Attempt,
			PriorStats:     p.Stats,
			PriorQuizzes:   p.SavedQuizzes,
			PriorActivity:  p.RecentActivity,
			IsRetry:        sub.Retry,
			ExistingQuizID: strings.TrimSpace(sub.QuizID),
			Now:            now,
			NewID:          s.newID,
		})
		return map[string]any{
			profile.FieldStats:          result.Stats,
			profile.FieldSavedQuizzes:   result.SavedQuizzes,
			profile.FieldRecentActivity: result.Activity,
		}
	})
	if err == nil && sub.Retry && result.QuizID == "" {
		s.log.Warn("retry references unknown saved quiz", "user_id", userID, "quiz_id", sub.QuizID)
	}
	return result, err
}

// RecordGauntlet saves a finished gauntlet run and forwards it to the
// leaderboard. Leaderboard failures are logged only.
func (s *Service) RecordGauntlet(ctx context.Context, userID string, run GauntletResult) (GauntletOutcome, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return GauntletOutcome{}, err
	}

	var outcome GauntletOutcome
	err = s.readModifyWrite(ctx, userID, writeKindGauntlet, func(p profile.Profile, now time.Time) map[string]any {
		outcome = RecordGauntlet(GauntletInput{
			Result:        run,
			PriorScores:   p.GauntletScores,
			PriorActivity: p.RecentActivity,
			Now:           now,
			NewID:         s.newID,
		})
		return map[string]any{
			profile.FieldGauntletScores: outcome.Scores,
			profile.FieldRecentActivity: outcome.Activity,
		}
	})
	if err != nil {
		return outcome, err
	}

	if s.board != nil {
		if boardErr := s.board.RecordGauntlet(ctx, userID, outcome.Score); boardErr != nil {
			s.log.Warn("leaderboard update failed", "user_id", userID, "error", boardErr)
		}
	}
	return outcome, nil
}

// Profile returns the user's decoded profile. A legacy gauntlet layout is
// flattened and, best effort, written back.
func (s *Service) Profile(ctx context.Context, userID string) (profile.Profile, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return profile.Profile{}, err
	}

	p, err := profile.Read(ctx, s.store, userID)
	if err != nil {
		return profile.Profile{}, err
	}

	migrated, changed := profile.Migrate(p, s.now(), s.newID)
	if changed {
		_, err := s.store.UpdateProfile(ctx, userID, p.Version, map[string]any{
			profile.FieldGauntletScores: migrated.GauntletScores,
		})
		s.metrics.ObserveProfileWrite(writeKindMigrate, err)
		if err != nil {
			s.log.Warn("persisting migrated gauntlet scores failed", "user_id", userID, "error", err)
		} else {
			migrated.Version = p.Version + 1
		}
	}
	return migrated, nil
}

// TopGauntletScores returns the user's best runs and a summary over all of
// them.
func (s *Service) TopGauntletScores(ctx context.Context, userID string, limit int) ([]profile.GauntletScore, GauntletSummary, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, GauntletSummary{}, err
	}
	if limit <= 0 {
		limit = TopGauntletLimit
	}
	scores := p.GauntletScores.Scores()
	return TopScores(scores, limit), Summarize(scores), nil
}

func (s *Service) readModifyWrite(ctx context.Context, userID, kind string, apply func(profile.Profile, time.Time) map[string]any) error {
	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		now := s.now()

		p, err := profile.Read(ctx, s.store, userID)
		if err != nil {
			apply(profile.Profile{UserID: userID}, now)
			s.metrics.ObserveProfileWrite(kind, err)
			s.log.Error("reading profile failed; result not saved", "user_id", userID, "kind", kind, "error", err)
			return &PersistenceError{Op: "read", Err: err}
		}

		migrated, changed := profile.Migrate(p, now, s.newID)
		fields := apply(migrated, now)
		if changed {
			if _, ok := fields[profile.FieldGauntletScores]; !ok {
				fields[profile.FieldGauntletScores] = migrated.GauntletScores
			}
		}

		_, err = s.store.UpdateProfile(ctx, userID, p.Version, fields)
		if err == nil {
			s.metrics.ObserveProfileWrite(kind, nil)
			return nil
		}
		lastErr = err
		if !errors.Is(err, profile.ErrVersionConflict) {
			break
		}
		s.log.Debug("profile changed during write, retrying", "user_id", userID, "attempt", attempt)
	}

	s.metrics.ObserveProfileWrite(kind, lastErr)
	s.log.Error("writing profile failed; result not saved", "user_id", userID, "kind", kind, "error", lastErr)
	return &PersistenceError{Op: "write", Err: lastErr}
}

// cleanUserID trims userID and keeps it out of the reservation keyspace.
func cleanUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || profile.IsReservedKey(userID) {
		return "", ErrInvalidUserID
	}
	return userID, nil
}
