// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/recipen/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to accounts, their session token and favorites.
type UserRepository interface {
	// Create inserts a new user. Duplicate email yields errs.ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetByRefreshToken loads the user currently holding the refresh token.
	GetByRefreshToken(ctx context.Context, token string) (*model.User, error)
	// SetRefreshToken overwrites the stored refresh token, ending any other session.
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// ClearRefreshToken empties the stored token of whoever holds it. Unknown tokens are a no-op.
	ClearRefreshToken(ctx context.Context, token string) error
	// UpdateProfile rewrites name/email and, when non-empty, the password hash and picture.
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileChange) (*model.User, error)
	// ToggleFavorite atomically adds or removes recipeID from the user's favorites.
	ToggleFavorite(ctx context.Context, id, recipeID uuid.UUID) (*model.User, error)
	// GrantRole atomically adds role to the user's roles if absent.
	GrantRole(ctx context.Context, id uuid.UUID, role string) (*model.User, error)
	// Disable marks the account disabled and drops its refresh token.
	Disable(ctx context.Context, id uuid.UUID) error
	// List returns every account except the one given.
	List(ctx context.Context, except uuid.UUID) ([]model.UserSummary, error)
}

// ProfileChange is a profile update with the password already hashed.
// Empty PasswordHash or ProfilePicture keeps the stored value.
type ProfileChange struct {
	Name           string
	Email          string
	PasswordHash   string
	ProfilePicture string
}
