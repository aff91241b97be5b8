// Package memory implements the repository interfaces in process memory.
// It backs the dev storage mode and transport tests; state is lost on restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type rating struct {
	kind   model.PostKind
	postID uuid.UUID
	model.Rating
	at time.Time
}

type comment struct {
	kind model.PostKind
	model.Comment
}

// Store holds every table behind one mutex.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*model.User
	recipes  map[uuid.UUID]*model.Recipe
	blogs    map[uuid.UUID]*model.Blog
	ratings  []rating
	comments []comment
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*model.User),
		recipes: make(map[uuid.UUID]*model.Recipe),
		blogs:   make(map[uuid.UUID]*model.Blog),
		now:     time.Now,
	}
}

// Users returns the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

// Recipes returns the store as a RecipeRepository.
func (s *Store) Recipes() repository.RecipeRepository { return (*recipeRepo)(s) }

// Blogs returns the store as a BlogRepository.
func (s *Store) Blogs() repository.BlogRepository { return (*blogRepo)(s) }

// Engagement returns the store as an EngagementRepository.
func (s *Store) Engagement() repository.EngagementRepository { return (*engagementRepo)(s) }

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	c.Favorites = slices.Clone(u.Favorites)
	if c.Favorites == nil {
		c.Favorites = []uuid.UUID{}
	}
	return &c
}

/************ users ************/

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("email %w", errs.ErrConflict)
		}
	}
	c := cloneUser(u)
	if len(c.Roles) == 0 {
		c.Roles = model.DefaultRoles()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.users[c.ID] = c
	return nil
}

func (r *userRepo) find(match func(*model.User) bool) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *userRepo) GetByRefreshToken(_ context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, errs.ErrNotFound
	}
	return r.find(func(u *model.User) bool { return u.RefreshToken == token })
}

// update applies fn to the stored row under the lock and returns a copy.
func (r *userRepo) update(id uuid.UUID, fn func(*model.User) error) (*model.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now()
	return cloneUser(u), nil
}

func (r *userRepo) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	_, err := r.update(id, func(u *model.User) error { u.RefreshToken = token; return nil })
	return err
}

func (r *userRepo) ClearRefreshToken(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.RefreshToken == token {
			u.RefreshToken = ""
			u.UpdatedAt = s.now()
		}
	}
	return nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id uuid.UUID, upd repository.ProfileChange) (*model.User, error) {
	s := (*Store)(r)
	return r.update(id, func(u *model.User) error {
		for _, other := range s.users {
			if other.ID != id && strings.EqualFold(other.Email, upd.Email) {
				return fmt.Errorf("email %w", errs.ErrConflict)
			}
		}
		u.Name = upd.Name
		u.Email = upd.Email
		if upd.PasswordHash != "" {
			u.PasswordHash = upd.PasswordHash
		}
		if upd.ProfilePicture != "" {
			u.ProfilePicture = upd.ProfilePicture
		}
		return nil
	})
}

func (r *userRepo) ToggleFavorite(_ context.Context, id, recipeID uuid.UUID) (*model.User, error) {
	return r.update(id, func(u *model.User) error {
		if i := slices.Index(u.Favorites, recipeID); i >= 0 {
			u.Favorites = slices.Delete(u.Favorites, i, i+1)
		} else {
			u.Favorites = append(u.Favorites, recipeID)
		}
		return nil
	})
}

func (r *userRepo) GrantRole(_ context.Context, id uuid.UUID, role string) (*model.User, error) {
	return r.update(id, func(u *model.User) error {
		if !slices.Contains(u.Roles, role) {
			u.Roles = append(u.Roles, role)
		}
		return nil
	})
}

func (r *userRepo) Disable(_ context.Context, id uuid.UUID) error {
	_, err := r.update(id, func(u *model.User) error {
		u.Disabled = true
		u.RefreshToken = ""
		return nil
	})
	return err
}

func (r *userRepo) List(_ context.Context, except uuid.UUID) ([]model.UserSummary, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.UserSummary{}
	for _, u := range s.users {
		if u.ID == except {
			continue
		}
		out = append(out, model.UserSummary{
			ID: u.ID, Name: u.Name, Email: u.Email, ProfilePicture: u.ProfilePicture,
			Roles: slices.Clone(u.Roles), Disabled: u.Disabled, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// authorName resolves a display name; caller holds the lock.
func (s *Store) authorName(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	if u, ok := s.users[*id]; ok {
		return u.Name
	}
	return ""
}
