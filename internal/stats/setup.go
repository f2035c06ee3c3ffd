package stats

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"quizgenius/internal/profile"
)

type ProfileSetup struct {
	Username    string
	DisplayName string
	Preferences profile.Preferences
}

// SetupProfile claims a username for userID and writes the profile basics.
// A new document also gets zeroed stats and empty histories. Profiles that
// already carry a username are left untouched.
func (s *Service) SetupProfile(ctx context.Context, userID string, setup ProfileSetup) (profile.Profile, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return profile.Profile{}, err
	}
	username := strings.TrimSpace(setup.Username)
	if !profile.ValidUsername(username) {
		return profile.Profile{}, ErrInvalidUsername
	}

	current, err := profile.Read(ctx, s.store, userID)
	if err != nil {
		return profile.Profile{}, &PersistenceError{Op: "read", Err: err}
	}
	if current.Username != "" {
		return profile.Profile{}, ErrProfileExists
	}

	if err := s.reserveUsername(ctx, userID, username); err != nil {
		return profile.Profile{}, err
	}

	displayName := strings.TrimSpace(setup.DisplayName)
	if displayName == "" {
		displayName = username
	}
	prefs := setup.Preferences.WithDefaults()

	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		fields := map[string]any{
			profile.FieldUsername:    username,
			profile.FieldDisplayName: displayName,
			profile.FieldPreferences: prefs,
		}
		if current.Version == 0 {
			fields[profile.FieldStats] = profile.UserStats{}
			fields[profile.FieldSavedQuizzes] = []profile.SavedQuiz{}
			fields[profile.FieldRecentActivity] = []profile.ActivityEntry{}
		}

		_, lastErr = s.store.UpdateProfile(ctx, userID, current.Version, fields)
		if lastErr == nil {
			s.metrics.ObserveProfileWrite(writeKindSetup, nil)
			s.log.Info("profile set up", "user_id", userID, "username", username)
			return s.Profile(ctx, userID)
		}
		if !errors.Is(lastErr, profile.ErrVersionConflict) {
			break
		}

		current, err = profile.Read(ctx, s.store, userID)
		if err != nil {
			lastErr = err
			break
		}
		if current.Username != "" {
			return profile.Profile{}, ErrProfileExists
		}
	}

	s.metrics.ObserveProfileWrite(writeKindSetup, lastErr)
	s.log.Error("writing profile setup failed", "user_id", userID, "error", lastErr)
	return profile.Profile{}, &PersistenceError{Op: "write", Err: lastErr}
}

// reserveUsername creates the reservation document for username. Claiming a
// name the user already holds succeeds, so a failed setup can be retried.
func (s *Service) reserveUsername(ctx context.Context, userID, username string) error {
	_, err := s.store.UpdateProfile(ctx, profile.UsernameKey(username), 0, map[string]any{
		profile.FieldOwner:    userID,
		profile.FieldUsername: strings.ToLower(username),
	})
	s.metrics.ObserveProfileWrite(writeKindReserve, err)
	if err == nil {
		return nil
	}
	if !errors.Is(err, profile.ErrVersionConflict) {
		return &PersistenceError{Op: "reserve", Err: err}
	}

	owner, err := s.usernameOwner(ctx, username)
	if err != nil {
		return &PersistenceError{Op: "read", Err: err}
	}
	if owner != userID {
		return ErrUsernameTaken
	}
	return nil
}

func (s *Service) usernameOwner(ctx context.Context, username string) (string, error) {
	doc, err := s.store.GetProfile(ctx, profile.UsernameKey(username))
	if errors.Is(err, profile.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	var reservation struct {
		Owner string `json:"owner"`
	}
	if err := json.Unmarshal(doc.Data, &reservation); err != nil {
		return "", err
	}
	return reservation.Owner, nil
}

// UsernameAvailable reports whether username is well formed and unclaimed.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if !profile.ValidUsername(username) {
		return false, nil
	}
	owner, err := s.usernameOwner(ctx, username)
	if err != nil {
		return false, &PersistenceError{Op: "read", Err: err}
	}
	return owner == "", nil
}

// Preferences returns the user's preferences with defaults filled in.
func (s *Service) Preferences(ctx context.Context, userID string) (profile.Preferences, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return profile.Preferences{}, err
	}
	return p.EffectivePreferences(), nil
}

// UpdatePreferences overlays the set fields of update onto the stored
// preferences. A nil Interests slice keeps the stored interests.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, update profile.Preferences) (profile.Preferences, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return profile.Preferences{}, err
	}

	var merged profile.Preferences
	err = s.readModifyWrite(ctx, userID, writeKindPrefs, func(p profile.Profile, _ time.Time) map[string]any {
		merged = overlayPreferences(p.EffectivePreferences(), update)
		return map[string]any{profile.FieldPreferences: merged}
	})
	return merged, err
}

func overlayPreferences(base, update profile.Preferences) profile.Preferences {
	if update.Difficulty != "" {
		base.Difficulty = update.Difficulty
	}
	if update.QuizLength != "" {
		base.QuizLength = update.QuizLength
	}
	if update.TimeLimit != "" {
		base.TimeLimit = update.TimeLimit
	}
	if update.Interests != nil {
		base.Interests = update.Interests
	}
	return base
}
