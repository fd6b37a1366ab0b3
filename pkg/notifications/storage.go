package notifications

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMissingUser          = errors.New("notification has no recipient")
)

// Storage persists notifications.
type Storage interface {
	Create(ctx context.Context, n Notification) error
	// List returns the newest notifications first.
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error)
	MarkRead(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// ListOptions filters and pages List.
type ListOptions struct {
	Limit      int
	Offset     int
	OnlyUnread bool
}
