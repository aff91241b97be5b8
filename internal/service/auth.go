// Package service contains application services for sessions, users and posts.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/recipen/internal/crypto"
	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/limiter"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/and161185/recipen/internal/token"
	"github.com/gofrs/uuid/v5"
)

// TokenPolicy states the access token lifetime of each issuance path.
type TokenPolicy struct {
	AccessTTL  time.Duration // login, refresh, profile update
	ReissueTTL time.Duration // favorite toggle, role grant
}

// DefaultTokenPolicy matches the lifetimes the web client was built against.
func DefaultTokenPolicy() TokenPolicy {
	return TokenPolicy{AccessTTL: 30 * time.Minute, ReissueTTL: 24 * time.Hour}
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	ProfilePicture string
}

// AuthService defines registration and the access/refresh session protocol.
type AuthService interface {
	// Register creates a new account with the default role.
	Register(ctx context.Context, in RegisterInput) (uuid.UUID, error)
	// LoginWithIP applies rate-limiting, authenticates and opens a new session.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, error)
	// Refresh mints a new access token for the holder of a stored refresh token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Logout ends the session owning refreshToken, if any.
	Logout(ctx context.Context, refreshToken string) error
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	issuer *token.Issuer
	hasher *pkgcrypto.Hasher
	lim    limiter.Limiter
	policy TokenPolicy
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, issuer *token.Issuer, hasher *pkgcrypto.Hasher,
	lim limiter.Limiter, policy TokenPolicy) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, issuer: issuer, hasher: hasher, lim: lim, policy: policy}
}

// Register hashes the password and stores a new user.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (uuid.UUID, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return uuid.Nil, fmt.Errorf("%w: name, email and password are required", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:             uid,
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   hash,
		ProfilePicture: in.ProfilePicture,
		Roles:          model.DefaultRoles(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	return uid, nil
}

// LoginWithIP authenticates with rate limiting by (email, ip).
// The stored refresh token is overwritten, which ends every other session of the user.
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.Tokens{}, fmt.Errorf("%w: email and password are required", errs.ErrValidation)
	}
	ipHash := limiter.HashIP(ip)

	// Check if requests are currently allowed for this (email, ip).
	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, err
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		// same bcrypt cost as a real compare, so unknown emails are not faster
		s.hasher.Burn(password)
		return model.Tokens{}, s.fail(ctx, email, ipHash)
	case err != nil:
		return model.Tokens{}, err
	}

	if u.Disabled {
		return model.Tokens{}, errs.ErrAccountDisabled
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return model.Tokens{}, s.fail(ctx, email, ipHash)
	}

	access, exp, err := s.issuer.IssueAccess(u.Identity(), s.policy.AccessTTL)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.issuer.IssueRefresh(u.ID)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return model.Tokens{}, err
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	return model.Tokens{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        exp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// fail records a failed attempt; once the threshold is reached the caller sees rate limiting.
func (s *AuthServiceImpl) fail(ctx context.Context, email string, ipHash []byte) error {
	if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
		return errs.ErrRateLimited
	}
	return errs.ErrUnauthorized
}

// Refresh validates the cookie value against the stored token and reissues an
// access token from the current row. The refresh token itself is not rotated.
// Unknown, mismatched, expired and disabled cases all collapse into ErrForbidden.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errs.ErrUnauthorized
	}
	u, err := s.users.GetByRefreshToken(ctx, refreshToken)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return "", errs.ErrForbidden
	case err != nil:
		return "", err
	}
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil || claims.UserID != u.ID.String() {
		return "", errs.ErrForbidden
	}
	if u.Disabled {
		return "", errs.ErrForbidden
	}
	access, _, err := s.issuer.IssueAccess(u.Identity(), s.policy.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// Logout clears the stored token. Unknown tokens are not an error.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.users.ClearRefreshToken(ctx, refreshToken)
}
