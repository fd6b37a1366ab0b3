package subscription

import (
	"context"

	"github.com/google/uuid"
)

// ProfileDirectory is the read side of the user profile store.
type ProfileDirectory interface {
	// FindUserIDByEmail looks up a profile by its normalized email.
	// A missing profile is (uuid.Nil, false, nil).
	FindUserIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// IdentityResolver maps payment emails to registered users.
type IdentityResolver struct {
	dir ProfileDirectory
}

// NewIdentityResolver panics if dir is nil.
func NewIdentityResolver(dir ProfileDirectory) *IdentityResolver {
	if dir == nil {
		panic("subscription: ProfileDirectory is required")
	}
	return &IdentityResolver{dir: dir}
}

// FindUserIDByEmail matches email case-insensitively against registered profiles.
func (r *IdentityResolver) FindUserIDByEmail(ctx context.Context, email string) (uuid.UUID, bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return uuid.Nil, false, nil
	}
	return r.dir.FindUserIDByEmail(ctx, email)
}

func (r *IdentityResolver) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	return r.dir.UserExists(ctx, userID)
}
