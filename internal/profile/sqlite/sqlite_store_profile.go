package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"quizgenius/internal/profile"
)

func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (profile.Document, error) {
	userID = strings.TrimSpace(userID)

	var (
		docJSON string
		version int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT doc_json, version FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&docJSON, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Document{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Document{}, err
	}

	return profile.Document{
		UserID:  userID,
		Version: version,
		Data:    []byte(docJSON),
	}, nil
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID string, expectedVersion int64, fields map[string]any) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("user id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var (
		docJSON string
		version int64
	)
	err = tx.QueryRowContext(ctx, `SELECT doc_json, version FROM profiles WHERE user_id = ?`, userID).Scan(&docJSON, &version)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return 0, err
	}

	if expectedVersion != profile.AnyVersion && expectedVersion != version {
		return 0, profile.ErrVersionConflict
	}

	now := s.now()
	merged, err := profile.MergeFields([]byte(docJSON), userID, fields, now)
	if err != nil {
		return 0, err
	}

	if exists {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE profiles SET doc_json = ?, version = version + 1, updated_at_unix = ? WHERE user_id = ? AND version = ?`,
			string(merged),
			now.UnixNano(),
			userID,
			version,
		)
		if err != nil {
			return 0, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			return 0, profile.ErrVersionConflict
		}
	} else {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO profiles (user_id, doc_json, version, created_at_unix, updated_at_unix) VALUES (?, ?, 1, ?, ?)`,
			userID,
			string(merged),
			now.UnixNano(),
			now.UnixNano(),
		)
		if err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return version + 1, nil
}
