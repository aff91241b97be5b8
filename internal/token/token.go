// Package token issues and verifies the access/refresh JWT pair.
//
// Access and refresh tokens are signed with independent HS256 keys and carry a
// "typ" claim, so a token of one kind never verifies as the other.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/recipen/internal/crypto"
	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"

	// DefaultRefreshTTL is the refresh token lifetime and the cookie max-age.
	DefaultRefreshTTL = 48 * time.Hour
)

var (
	// ErrExpired reports a token that verified but is past its expiry.
	ErrExpired = errs.ErrTokenExpired
	// ErrInvalid reports a malformed token, a bad signature, or a token of the wrong kind.
	ErrInvalid = fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
)

// UserInfo is the identity snapshot as it travels inside the access token.
type UserInfo struct {
	UserID         string   `json:"userId"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	ProfilePicture string   `json:"profilePicture"`
	Roles          []string `json:"roles"`
	Favorites      []string `json:"favorites"`
}

// AccessClaims are the claims of an access token.
type AccessClaims struct {
	UserInfo UserInfo `json:"UserInfo"`
	Type     string   `json:"typ"`
	jwt.RegisteredClaims
}

// Identity converts the embedded snapshot back into the domain type.
func (c *AccessClaims) Identity() (model.Identity, error) {
	id, err := uuid.FromString(c.UserInfo.UserID)
	if err != nil {
		return model.Identity{}, ErrInvalid
	}
	favs := make([]uuid.UUID, 0, len(c.UserInfo.Favorites))
	for _, f := range c.UserInfo.Favorites {
		fid, err := uuid.FromString(f)
		if err != nil {
			return model.Identity{}, ErrInvalid
		}
		favs = append(favs, fid)
	}
	return model.Identity{
		UserID:         id,
		Name:           c.UserInfo.Name,
		Email:          c.UserInfo.Email,
		ProfilePicture: c.UserInfo.ProfilePicture,
		Roles:          append([]string(nil), c.UserInfo.Roles...),
		Favorites:      favs,
	}, nil
}

// RefreshClaims are the claims of a refresh token: only the owner id.
type RefreshClaims struct {
	UserID string `json:"userId"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens. It performs no I/O.
type Issuer struct {
	accessKey  []byte
	refreshKey []byte
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer constructs an Issuer. Keys must be non-empty and distinct.
func NewIssuer(accessKey, refreshKey []byte, refreshTTL time.Duration, opts ...Option) (*Issuer, error) {
	if len(accessKey) == 0 || len(refreshKey) == 0 {
		return nil, errors.New("token: signing keys are required")
	}
	if string(accessKey) == string(refreshKey) {
		return nil, errors.New("token: access and refresh keys must differ")
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	i := &Issuer{
		accessKey:  append([]byte(nil), accessKey...),
		refreshKey: append([]byte(nil), refreshKey...),
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// RefreshTTL returns the refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess signs an access token carrying the identity snapshot for ttl.
func (i *Issuer) IssueAccess(id model.Identity, ttl time.Duration) (string, time.Time, error) {
	if id.UserID == uuid.Nil {
		return "", time.Time{}, errors.New("token: empty subject")
	}
	roles := id.Roles
	if len(roles) == 0 {
		roles = model.DefaultRoles()
	}
	favs := make([]string, 0, len(id.Favorites))
	for _, f := range id.Favorites {
		favs = append(favs, f.String())
	}

	now := i.now()
	exp := now.Add(ttl)
	claims := AccessClaims{
		UserInfo: UserInfo{
			UserID:         id.UserID.String(),
			Name:           id.Name,
			Email:          id.Email,
			ProfilePicture: id.ProfilePicture,
			Roles:          roles,
			Favorites:      favs,
		},
		Type: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessKey)
	return signed, exp, err
}

// IssueRefresh signs a refresh token for userID. Each call yields a distinct
// token (random jti), even within the same second.
func (i *Issuer) IssueRefresh(userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("token: empty subject")
	}
	jti, err := pkgcrypto.RandHex(16)
	if err != nil {
		return "", time.Time{}, err
	}
	now := i.now()
	exp := now.Add(i.refreshTTL)
	claims := RefreshClaims{
		UserID: userID.String(),
		Type:   typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshKey)
	return signed, exp, err
}

// VerifyAccess checks signature, expiry and kind of an access token.
func (i *Issuer) VerifyAccess(tok string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := i.parse(tok, &claims, i.accessKey); err != nil {
		return nil, err
	}
	if claims.Type != typeAccess {
		return nil, ErrInvalid
	}
	return &claims, nil
}

// VerifyRefresh checks signature, expiry and kind of a refresh token.
func (i *Issuer) VerifyRefresh(tok string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := i.parse(tok, &claims, i.refreshKey); err != nil {
		return nil, err
	}
	if claims.Type != typeRefresh || claims.UserID == "" {
		return nil, ErrInvalid
	}
	return &claims, nil
}

func (i *Issuer) parse(tok string, claims jwt.Claims, key []byte) error {
	if tok == "" {
		return ErrInvalid
	}
	parsed, err := jwt.ParseWithClaims(tok, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil && parsed.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrInvalid
	}
}
