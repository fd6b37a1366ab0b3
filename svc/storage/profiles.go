package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/predictvip/pkg/pg"
	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

// RoleAdmin is the user_roles value that grants subscription management.
const RoleAdmin = "admin"

// ProfileStore reads user profiles and roles. It implements
// subscription.ProfileDirectory.
type ProfileStore struct {
	db DB
}

func NewProfileStore(db DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) FindUserIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM profiles WHERE lower(email) = $1`, subscription.NormalizeEmail(email)).Scan(&id)
	if pg.IsNotFoundError(err) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to find profile: %w", err)
	}
	return id, true, nil
}

func (s *ProfileStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check profile: %w", err)
	}
	return exists, nil
}

// HasRole reports whether the user holds role.
func (s *ProfileStore) HasRole(ctx context.Context, userID uuid.UUID, role string) (bool, error) {
	var ok bool
	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	if err := s.db.QueryRow(ctx, query, userID, role).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check user role: %w", err)
	}
	return ok, nil
}

// IsAdmin reports whether the user may manage subscriptions.
func (s *ProfileStore) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.HasRole(ctx, userID, RoleAdmin)
}
