package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("profile not found")
	ErrVersionConflict = errors.New("profile was modified concurrently")
)

// AnyVersion disables the compare-and-swap check in UpdateProfile.
const AnyVersion int64 = -1

// Document is a stored profile: a JSON object plus its revision.
type Document struct {
	UserID  string
	Version int64
	Data    []byte
}

// Store persists per-user profile documents.
//
// UpdateProfile merges fields into the top level of the document, creating
// it when absent, and returns the new version. When expectedVersion is not
// AnyVersion the write is rejected with ErrVersionConflict unless the stored
// version matches (0 meaning "does not exist yet").
type Store interface {
	GetProfile(ctx context.Context, userID string) (Document, error)
	UpdateProfile(ctx context.Context, userID string, expectedVersion int64, fields map[string]any) (int64, error)
}

// Read loads and decodes a profile. A missing document yields an empty
// profile at version 0.
func Read(ctx context.Context, store Store, userID string) (Profile, error) {
	doc, err := store.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Profile{UserID: userID}, nil
	}
	if err != nil {
		return Profile{}, err
	}

	p, err := Decode(doc.Data)
	if err != nil {
		return Profile{}, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	if p.UserID == "" {
		p.UserID = userID
	}
	p.Version = doc.Version
	return p, nil
}

// MergeFields applies a partial update to an encoded document and stamps
// updatedAt (and uid/createdAt for new documents).
func MergeFields(existing []byte, userID string, fields map[string]any, now time.Time) ([]byte, error) {
	doc := make(map[string]json.RawMessage)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("decode stored profile: %w", err)
		}
	}
	if doc == nil {
		// a stored JSON null
		doc = make(map[string]json.RawMessage)
	}

	for key, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode profile field %s: %w", key, err)
		}
		doc[key] = raw
	}

	stamp, err := json.Marshal(At(now))
	if err != nil {
		return nil, err
	}
	if _, ok := doc[FieldUserID]; !ok {
		uid, err := json.Marshal(userID)
		if err != nil {
			return nil, err
		}
		doc[FieldUserID] = uid
	}
	if _, ok := doc[FieldCreatedAt]; !ok {
		doc[FieldCreatedAt] = stamp
	}
	doc[FieldUpdatedAt] = stamp

	return json.Marshal(doc)
}
