package subscription

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]*Subscription)}
}

func (m *MemoryStore) Create(_ context.Context, sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[sub.ID]; ok {
		return ErrSubscriptionExists
	}
	m.rows[sub.ID] = sub.Clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.rows[id]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (m *MemoryStore) ListByEmail(_ context.Context, email string, statuses ...Status) ([]*Subscription, error) {
	email = NormalizeEmail(email)
	return m.filter(func(s *Subscription) bool {
		return s.PaymentEmail == email && (len(statuses) == 0 || slices.Contains(statuses, s.Status))
	}, newestFirst, 0), nil
}

func (m *MemoryStore) Update(_ context.Context, prev, next *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rows[prev.ID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	if cur.Status != prev.Status || !cur.UpdatedAt.Equal(prev.UpdatedAt) {
		return ErrStaleSubscription
	}
	m.rows[prev.ID] = next.Clone()
	return nil
}

func (m *MemoryStore) ExpireDue(_ context.Context, now time.Time) ([]*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Subscription
	for _, s := range m.rows {
		if s.Status != StatusActive || s.ExpiresAt == nil || s.ExpiresAt.After(now) {
			continue
		}
		s.Status = StatusExpired
		s.UpdatedAt = nextVersion(s.UpdatedAt, now)
		out = append(out, s.Clone())
	}
	slices.SortFunc(out, oldestFirst)
	return out, nil
}

func (m *MemoryStore) ListExpiring(_ context.Context, from, to time.Time) ([]*Subscription, error) {
	return m.filter(func(s *Subscription) bool {
		return s.Status == StatusActive && s.ExpiresAt != nil &&
			!s.ExpiresAt.Before(from) && s.ExpiresAt.Before(to) &&
			(s.ExpiryWarningFor == nil || !s.ExpiryWarningFor.Equal(*s.ExpiresAt))
	}, oldestFirst, 0), nil
}

func (m *MemoryStore) MarkExpiryWarned(_ context.Context, id uuid.UUID, expiresAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok || s.Status != StatusActive || s.ExpiresAt == nil || !s.ExpiresAt.Equal(expiresAt) {
		return false, nil
	}
	if s.ExpiryWarningFor != nil && s.ExpiryWarningFor.Equal(expiresAt) {
		return false, nil
	}
	s.ExpiryWarningFor = &expiresAt
	s.UpdatedAt = s.UpdatedAt.Add(time.Microsecond)
	return true, nil
}

func (m *MemoryStore) ListUnlinked(_ context.Context, limit int) ([]*Subscription, error) {
	return m.filter(func(s *Subscription) bool {
		return s.UserID == nil && slices.Contains([]Status{StatusPending, StatusActive, StatusExpired}, s.Status)
	}, oldestFirst, limit), nil
}

func (m *MemoryStore) filter(keep func(*Subscription) bool, order func(a, b *Subscription) int, limit int) []*Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Subscription
	for _, s := range m.rows {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	slices.SortFunc(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func oldestFirst(a, b *Subscription) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID.String(), b.ID.String()))
}

func newestFirst(a, b *Subscription) int {
	return oldestFirst(b, a)
}

// MemoryLedger is an in-memory EventLedger.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string]PaymentRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]PaymentRecord)}
}

func (l *MemoryLedger) Seen(_ context.Context, reference string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.records[reference]
	return ok, nil
}

func (l *MemoryLedger) Record(_ context.Context, rec PaymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[rec.Reference]; !ok {
		l.records[rec.Reference] = rec
	}
	return nil
}

// MemoryDirectory is an in-memory ProfileDirectory.
type MemoryDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]uuid.UUID
	users   map[uuid.UUID]struct{}
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byEmail: make(map[string]uuid.UUID),
		users:   make(map[uuid.UUID]struct{}),
	}
}

// Register adds a profile.
func (d *MemoryDirectory) Register(userID uuid.UUID, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byEmail[NormalizeEmail(email)] = userID
	d.users[userID] = struct{}{}
}

func (d *MemoryDirectory) FindUserIDByEmail(_ context.Context, email string) (uuid.UUID, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[NormalizeEmail(email)]
	return id, ok, nil
}

func (d *MemoryDirectory) UserExists(_ context.Context, userID uuid.UUID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok, nil
}
