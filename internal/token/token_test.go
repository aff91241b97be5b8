package token

import (
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
)

func newIssuer(t *testing.T, opts ...Option) *Issuer {
	t.Helper()
	i, err := NewIssuer([]byte("access-secret"), []byte("refresh-secret"), 2*time.Hour, opts...)
	require.NoError(t, err)
	return i
}

func identity() model.Identity {
	return model.Identity{
		UserID:         uuid.Must(uuid.NewV4()),
		Name:           "Alice",
		Email:          "alice@example.com",
		ProfilePicture: "https://img.example.com/a.png",
		Roles:          []string{model.RoleBasic, model.RolePro},
		Favorites:      []uuid.UUID{uuid.Must(uuid.NewV4())},
	}
}

func TestNewIssuer_KeyValidation(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer(nil, []byte("r"), time.Hour)
	require.Error(t, err)
	_, err = NewIssuer([]byte("a"), nil, time.Hour)
	require.Error(t, err)
	_, err = NewIssuer([]byte("same"), []byte("same"), time.Hour)
	require.Error(t, err)

	i, err := NewIssuer([]byte("a"), []byte("r"), 0)
	require.NoError(t, err)
	require.Equal(t, DefaultRefreshTTL, i.RefreshTTL())
}

func TestAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	i := newIssuer(t)
	id := identity()

	tok, exp, err := i.IssueAccess(id, 30*time.Minute)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), exp, 2*time.Second)

	claims, err := i.VerifyAccess(tok)
	require.NoError(t, err)
	got, err := claims.Identity()
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.Equal(t, id.UserID.String(), claims.Subject)
}

func TestAccess_DefaultsEmptyRoles(t *testing.T) {
	t.Parallel()

	i := newIssuer(t)
	id := identity()
	id.Roles = nil
	id.Favorites = nil

	tok, _, err := i.IssueAccess(id, time.Minute)
	require.NoError(t, err)
	claims, err := i.VerifyAccess(tok)
	require.NoError(t, err)
	require.Equal(t, []string{model.RoleBasic}, claims.UserInfo.Roles)
	require.Empty(t, claims.UserInfo.Favorites)
}

func TestAccess_Expired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-2 * time.Hour)
	old := newIssuer(t, WithClock(func() time.Time { return past }))
	tok, _, err := old.IssueAccess(identity(), 30*time.Minute)
	require.NoError(t, err)

	_, err = newIssuer(t).VerifyAccess(tok)
	require.ErrorIs(t, err, ErrExpired)
	require.ErrorIs(t, err, errs.ErrTokenExpired)
}

func TestAccess_WrongKeyIsInvalidNotExpired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-2 * time.Hour)
	other, err := NewIssuer([]byte("other-access"), []byte("other-refresh"), time.Hour,
		WithClock(func() time.Time { return past }))
	require.NoError(t, err)
	tok, _, err := other.IssueAccess(identity(), time.Minute)
	require.NoError(t, err)

	_, err = newIssuer(t).VerifyAccess(tok)
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestKeysAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	i := newIssuer(t)
	id := identity()

	access, _, err := i.IssueAccess(id, time.Minute)
	require.NoError(t, err)
	refresh, _, err := i.IssueRefresh(id.UserID)
	require.NoError(t, err)

	_, err = i.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrInvalid)
	_, err = i.VerifyAccess(refresh)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestTypeClaimChecked(t *testing.T) {
	t.Parallel()

	i := newIssuer(t)
	// refresh-shaped claims signed with the access key must still be rejected
	claims := RefreshClaims{
		UserID: uuid.Must(uuid.NewV4()).String(),
		Type:   typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessKey)
	require.NoError(t, err)

	_, err = i.VerifyAccess(tok)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestRefresh_RoundTripAndUniqueness(t *testing.T) {
	t.Parallel()

	i := newIssuer(t)
	uid := uuid.Must(uuid.NewV4())

	a, exp, err := i.IssueRefresh(uid)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(2*time.Hour), exp, 2*time.Second)
	b, _, err := i.IssueRefresh(uid)
	require.NoError(t, err)
	require.NotEqual(t, a, b, "two refresh tokens for the same user must differ")

	claims, err := i.VerifyRefresh(a)
	require.NoError(t, err)
	require.Equal(t, uid.String(), claims.UserID)
}

func TestRefresh_Expired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-72 * time.Hour)
	old := newIssuer(t, WithClock(func() time.Time { return past }))
	tok, _, err := old.IssueRefresh(uuid.Must(uuid.NewV4()))
	require.NoError(t, err)

	_, err = newIssuer(t).VerifyRefresh(tok)
	require.True(t, errors.Is(err, ErrExpired))
}

func TestVerify_RejectsGarbageAndOtherAlgs(t *testing.T) {
	t.Parallel()

	i := newIssuer(t)
	for _, tok := range []string{"", "not.a.jwt", "a.b.c"} {
		_, err := i.VerifyAccess(tok)
		require.ErrorIs(t, err, ErrInvalid, tok)
	}

	claims := AccessClaims{
		UserInfo: UserInfo{UserID: uuid.Must(uuid.NewV4()).String()},
		Type:     typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = i.VerifyAccess(none)
	require.ErrorIs(t, err, ErrInvalid)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.accessKey)
	require.NoError(t, err)
	_, err = i.VerifyAccess(hs512)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestIssue_RejectsNilSubject(t *testing.T) {
	t.Parallel()

	i := newIssuer(t)
	_, _, err := i.IssueAccess(model.Identity{}, time.Minute)
	require.Error(t, err)
	_, _, err = i.IssueRefresh(uuid.Nil)
	require.Error(t, err)
}

func TestAccessClaims_IdentityRejectsBadIDs(t *testing.T) {
	t.Parallel()

	c := &AccessClaims{UserInfo: UserInfo{UserID: "nope"}}
	_, err := c.Identity()
	require.ErrorIs(t, err, ErrInvalid)

	c = &AccessClaims{UserInfo: UserInfo{UserID: uuid.Must(uuid.NewV4()).String(), Favorites: []string{"x"}}}
	_, err = c.Identity()
	require.ErrorIs(t, err, ErrInvalid)
}
