package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

var _ repository.UserRepository = (*UserRepo)(nil)

// userCols is the column list every full-row read selects, in scanUser order.
const userCols = `id, name, email, password_hash, profile_picture, roles, favorites::text[], disabled, refresh_token, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		favs []string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfilePicture,
		&u.Roles, &favs, &u.Disabled, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	ids, err := parseUUIDs(favs)
	if err != nil {
		return nil, fmt.Errorf("user %s favorites: %w", u.ID, err)
	}
	u.Favorites = ids
	return &u, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, name, email, password_hash, profile_picture, roles)
VALUES ($1, $2, $3, $4, $5, $6)`
	roles := u.Roles
	if len(roles) == 0 {
		roles = model.DefaultRoles()
	}
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Name, u.Email, u.PasswordHash, u.ProfilePicture, roles)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %w", errs.ErrConflict)
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// GetByRefreshToken selects the user whose stored token equals token.
func (r *UserRepo) GetByRefreshToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, errs.ErrNotFound
	}
	const q = `SELECT ` + userCols + ` FROM users WHERE refresh_token=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, token))
}

// SetRefreshToken overwrites the stored token.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	const q = `UPDATE users SET refresh_token=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ClearRefreshToken empties the token of whichever user holds it.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	const q = `UPDATE users SET refresh_token='', updated_at=now() WHERE refresh_token=$1`
	_, err := r.db.Pool.Exec(ctx, q, token)
	return err
}

// UpdateProfile rewrites the profile fields in one statement.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, upd repository.ProfileChange) (*model.User, error) {
	const q = `
UPDATE users
SET name=$2,
    email=$3,
    password_hash=COALESCE(NULLIF($4, ''), password_hash),
    profile_picture=COALESCE(NULLIF($5, ''), profile_picture),
    updated_at=now()
WHERE id=$1
RETURNING ` + userCols
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, id, upd.Name, upd.Email, upd.PasswordHash, upd.ProfilePicture))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("email %w", errs.ErrConflict)
	}
	return u, err
}

// ToggleFavorite flips membership of recipeID under the row lock of a single UPDATE.
func (r *UserRepo) ToggleFavorite(ctx context.Context, id, recipeID uuid.UUID) (*model.User, error) {
	const q = `
UPDATE users
SET favorites = CASE
        WHEN $2::uuid = ANY(favorites) THEN array_remove(favorites, $2::uuid)
        ELSE array_append(favorites, $2::uuid)
    END,
    updated_at=now()
WHERE id=$1
RETURNING ` + userCols
	return scanUser(r.db.Pool.QueryRow(ctx, q, id, recipeID))
}

// GrantRole appends role unless already present.
func (r *UserRepo) GrantRole(ctx context.Context, id uuid.UUID, role string) (*model.User, error) {
	const q = `
UPDATE users
SET roles = CASE WHEN $2 = ANY(roles) THEN roles ELSE array_append(roles, $2) END,
    updated_at=now()
WHERE id=$1
RETURNING ` + userCols
	return scanUser(r.db.Pool.QueryRow(ctx, q, id, role))
}

// Disable flags the account and ends its session.
func (r *UserRepo) Disable(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET disabled=true, refresh_token='', updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// List returns account summaries ordered by creation time.
func (r *UserRepo) List(ctx context.Context, except uuid.UUID) ([]model.UserSummary, error) {
	const q = `
SELECT id, name, email, profile_picture, roles, disabled, created_at, updated_at
FROM users
WHERE id <> $1
ORDER BY created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, except)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.UserSummary{}
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.ProfilePicture, &s.Roles, &s.Disabled, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
