package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/predictvip/pkg/notifications"
)

// NotificationStore is the Postgres notifications.Storage.
type NotificationStore struct {
	db DB
}

func NewNotificationStore(db DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, n notifications.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, data, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.Exec(ctx, query, n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.Data, n.ReadAt, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) List(ctx context.Context, userID uuid.UUID, opts notifications.ListOptions) ([]notifications.Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, data, read_at, created_at
		FROM notifications
		WHERE user_id = $1 AND (NOT $2::bool OR read_at IS NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($3::int, 0) OFFSET $4
	`
	rows, err := s.db.Query(ctx, query, userID, opts.OnlyUnread, max(opts.Limit, 0), max(opts.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notifications.Notification, error) {
		var (
			n   notifications.Notification
			typ string
		)
		if err := row.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &n.Data, &n.ReadAt, &n.CreatedAt); err != nil {
			return n, err
		}
		n.Type = notifications.Type(typ)
		n.Read = n.ReadAt != nil
		n.ReadAt = utcPtr(n.ReadAt)
		n.CreatedAt = n.CreatedAt.UTC()
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}
	return list, nil
}

// MarkRead returns notifications.ErrNotificationNotFound, without marking
// anything, when one of ids does not belong to the user.
func (s *NotificationStore) MarkRead(ctx context.Context, userID uuid.UUID, ids ...uuid.UUID) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)
	if len(keys) == 0 {
		return nil
	}

	var owned int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND id = ANY($2::uuid[])`,
		userID, keys,
	).Scan(&owned)
	if err != nil {
		return fmt.Errorf("failed to check notifications: %w", err)
	}
	if owned != len(keys) {
		return notifications.ErrNotificationNotFound
	}

	query := `
		UPDATE notifications SET read_at = now()
		WHERE user_id = $1 AND id = ANY($2::uuid[]) AND read_at IS NULL
	`
	if _, err := s.db.Exec(ctx, query, userID, keys); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}
