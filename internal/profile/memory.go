package profile

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store, used by the CLI when no database path
// is configured and by tests.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]Document
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[userID]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Data = append([]byte(nil), doc.Data...)
	return doc, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, userID string, expectedVersion int64, fields map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.docs[userID]
	if expectedVersion != AnyVersion && expectedVersion != current.Version {
		return 0, ErrVersionConflict
	}

	merged, err := MergeFields(current.Data, userID, fields, s.now())
	if err != nil {
		return 0, err
	}

	next := Document{UserID: userID, Version: current.Version + 1, Data: merged}
	s.docs[userID] = next
	return next.Version, nil
}
