package service

import (
	"context"
	"fmt"
	"strings"

	pkgcrypto "github.com/and161185/recipen/internal/crypto"
	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/and161185/recipen/internal/token"
	"github.com/gofrs/uuid/v5"
)

// Checkout starts a payment session with the billing provider and returns its URL.
type Checkout interface {
	CreateSession(ctx context.Context, userID uuid.UUID) (string, error)
}

// StaticCheckout hands out a fixed checkout URL. Used when no billing provider is wired.
type StaticCheckout struct{ URL string }

// CreateSession returns the configured URL.
func (c StaticCheckout) CreateSession(context.Context, uuid.UUID) (string, error) {
	if c.URL == "" {
		return "", fmt.Errorf("checkout url is not configured")
	}
	return c.URL, nil
}

// Subscription is the outcome of a successful subscribe call.
type Subscription struct {
	URL         string
	AccessToken string
}

// UserService covers self-service profile changes, subscriptions and admin account management.
type UserService interface {
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd model.ProfileUpdate) (string, error)
	Subscribe(ctx context.Context, userID uuid.UUID) (Subscription, error)
	List(ctx context.Context, requester uuid.UUID) ([]model.UserSummary, error)
	Disable(ctx context.Context, requester, target uuid.UUID) error
}

type UserServiceImpl struct {
	users    repository.UserRepository
	issuer   *token.Issuer
	hasher   *pkgcrypto.Hasher
	checkout Checkout
	policy   TokenPolicy
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository, issuer *token.Issuer, hasher *pkgcrypto.Hasher,
	checkout Checkout, policy TokenPolicy) *UserServiceImpl {
	return &UserServiceImpl{users: users, issuer: issuer, hasher: hasher, checkout: checkout, policy: policy}
}

// UpdateProfile rewrites the caller's profile and returns a fresh access token
// carrying the new name, email and picture.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, upd model.ProfileUpdate) (string, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Email = strings.TrimSpace(upd.Email)
	if upd.Name == "" || upd.Email == "" {
		return "", fmt.Errorf("%w: name and email are required", errs.ErrValidation)
	}
	change := repository.ProfileChange{Name: upd.Name, Email: upd.Email, ProfilePicture: upd.ProfilePicture}
	if upd.Password != "" {
		hash, err := s.hasher.Hash(upd.Password)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		change.PasswordHash = hash
	}
	u, err := s.users.UpdateProfile(ctx, userID, change)
	if err != nil {
		return "", err
	}
	access, _, err := s.issuer.IssueAccess(u.Identity(), s.policy.AccessTTL)
	return access, err
}

// Subscribe opens a checkout session and grants the pro role.
func (s *UserServiceImpl) Subscribe(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	url, err := s.checkout.CreateSession(ctx, userID)
	if err != nil {
		return Subscription{}, fmt.Errorf("checkout: %w", err)
	}
	u, err := s.users.GrantRole(ctx, userID, model.RolePro)
	if err != nil {
		return Subscription{}, err
	}
	access, _, err := s.issuer.IssueAccess(u.Identity(), s.policy.ReissueTTL)
	if err != nil {
		return Subscription{}, err
	}
	return Subscription{URL: url, AccessToken: access}, nil
}

// List returns every account but the requester's.
func (s *UserServiceImpl) List(ctx context.Context, requester uuid.UUID) ([]model.UserSummary, error) {
	return s.users.List(ctx, requester)
}

// Disable terminates an account and its session. Admins cannot disable themselves.
func (s *UserServiceImpl) Disable(ctx context.Context, requester, target uuid.UUID) error {
	if requester == target {
		return fmt.Errorf("%w: cannot disable own account", errs.ErrValidation)
	}
	return s.users.Disable(ctx, target)
}
