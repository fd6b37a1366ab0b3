package notifications

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID][]Notification
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{byUser: make(map[uuid.UUID][]Notification)}
}

func (s *MemoryStorage) Create(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n)
	return nil
}

func (s *MemoryStorage) List(_ context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Notification
	for _, n := range slices.Backward(s.byUser[userID]) {
		if opts.OnlyUnread && n.Read {
			continue
		}
		out = append(out, n)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStorage) MarkRead(_ context.Context, userID uuid.UUID, ids ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	feed := s.byUser[userID]
	for _, id := range ids {
		i := slices.IndexFunc(feed, func(n Notification) bool { return n.ID == id })
		if i < 0 {
			return ErrNotificationNotFound
		}
		if !feed[i].Read {
			feed[i].Read = true
			feed[i].ReadAt = &now
		}
	}
	return nil
}

func (s *MemoryStorage) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byUser[userID] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}
