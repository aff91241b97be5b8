// Package model defines domain entities used by services and repositories.
package model

import (
	"slices"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role tags carried in access tokens.
const (
	RoleBasic = "BasicUser"
	RolePro   = "ProUser"
	RoleAdmin = "Admin"
)

// DefaultRoles is assigned to every new account.
func DefaultRoles() []string { return []string{RoleBasic} }

// User represents an account stored on the server.
type User struct {
	ID             uuid.UUID // PK
	Name           string
	Email          string // unique
	PasswordHash   string // bcrypt
	ProfilePicture string
	Roles          []string    // never empty; DefaultRoles on creation
	Favorites      []uuid.UUID // recipe ids, set semantics
	Disabled       bool
	RefreshToken   string // "" = no active session
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Identity is the snapshot embedded into an access token at issuance time.
// It is not re-read from the store on every request: role or favorite changes
// become visible only after the token is reissued.
type Identity struct {
	UserID         uuid.UUID
	Name           string
	Email          string
	ProfilePicture string
	Roles          []string
	Favorites      []uuid.UUID
}

// Identity builds the token snapshot from the current row.
func (u *User) Identity() Identity {
	roles := u.Roles
	if len(roles) == 0 {
		roles = DefaultRoles()
	}
	favs := u.Favorites
	if favs == nil {
		favs = []uuid.UUID{}
	}
	return Identity{
		UserID:         u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Roles:          slices.Clone(roles),
		Favorites:      slices.Clone(favs),
	}
}

// HasAnyRole reports whether the identity carries at least one of the allowed roles.
func (id Identity) HasAnyRole(allowed ...string) bool {
	for _, r := range id.Roles {
		if slices.Contains(allowed, r) {
			return true
		}
	}
	return false
}

// Tokens collects issued access/refresh tokens (refresh optional).
type Tokens struct {
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time // access token expiry (for diagnostics)
	RefreshExpiresAt time.Time
}

// UserSummary is the admin-facing view of an account.
type UserSummary struct {
	ID             uuid.UUID
	Name           string
	Email          string
	ProfilePicture string
	Roles          []string
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfileUpdate carries the fields a user may change about themselves.
// Empty Password keeps the current hash; empty ProfilePicture keeps the current picture.
type ProfileUpdate struct {
	Name           string
	Email          string
	Password       string
	ProfilePicture string
}

// PostKind distinguishes the two commentable/ratable resource types.
type PostKind string

const (
	KindRecipe PostKind = "recipe"
	KindBlog   PostKind = "blog"
)

// Author is the public projection of a user attached to posts and comments.
type Author struct {
	ID             uuid.UUID
	Name           string
	ProfilePicture string
}

// Rating is a single user's score of a post.
type Rating struct {
	UserID uuid.UUID
	Value  int
}

// Comment is owned by its author; only the author may delete it.
type Comment struct {
	ID        uuid.UUID
	PostID    uuid.UUID
	Author    Author
	Body      string
	CreatedAt time.Time
}

// Recipe is owned by its author (nil when the author was deleted).
type Recipe struct {
	ID           uuid.UUID
	Title        string
	AuthorID     *uuid.UUID
	AuthorName   string
	Description  string
	Image        string
	CookingTime  string
	Calories     string
	Ingredients  []string
	Instructions []string
	Ratings      []Rating
	Comments     []Comment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Blog is owned by its author (nil when the author was deleted).
type Blog struct {
	ID          uuid.UUID
	Title       string
	AuthorID    *uuid.UUID
	AuthorName  string
	Description string
	Image       string
	Ratings     []Rating
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeInput is the client-supplied body of a recipe create/update.
type RecipeInput struct {
	Title        string
	Description  string
	Image        string
	CookingTime  string
	Calories     string
	Ingredients  []string
	Instructions []string
}

// Complete reports whether every required recipe field is present.
func (in RecipeInput) Complete() bool {
	return in.Title != "" && in.Description != "" && in.Image != "" &&
		in.CookingTime != "" && in.Calories != "" &&
		len(in.Ingredients) > 0 && len(in.Instructions) > 0
}

// BlogInput is the client-supplied body of a blog create/update.
type BlogInput struct {
	Title       string
	Description string
	Image       string
}

// Complete reports whether every required blog field is present.
func (in BlogInput) Complete() bool {
	return in.Title != "" && in.Description != "" && in.Image != ""
}
