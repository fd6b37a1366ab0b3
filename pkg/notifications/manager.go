package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/pkg/logger"
)

// Manager is the entry point for writing and reading feeds.
type Manager struct {
	storage Storage
	logger  *slog.Logger
	now     func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage: storage,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send fills in the id and creation time when unset and stores n.
func (m *Manager) Send(ctx context.Context, n Notification) (Notification, error) {
	if n.UserID == uuid.Nil {
		return n, ErrMissingUser
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now().UTC()
	}

	if err := m.storage.Create(ctx, n); err != nil {
		return n, fmt.Errorf("store notification: %w", err)
	}
	m.logger.DebugContext(ctx, "notification stored",
		logger.UserID(n.UserID), slog.String("notification_id", n.ID.String()))
	return n, nil
}

func (m *Manager) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	return m.storage.List(ctx, userID, opts)
}

func (m *Manager) MarkRead(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return m.storage.MarkRead(ctx, userID, ids...)
}

func (m *Manager) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.storage.CountUnread(ctx, userID)
}
