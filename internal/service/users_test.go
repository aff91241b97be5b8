package service

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/gofrs/uuid/v5"
)

type fakeCheckout struct {
	url string
	err error
}

func (c fakeCheckout) CreateSession(context.Context, uuid.UUID) (string, error) { return c.url, c.err }

func TestUsers_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := newFakeUsers()
	a := seed(t, users, "a@example.com", "old")
	seed(t, users, "b@example.com", "pw")
	iss := newTestIssuer(t)
	s := NewUserService(users, iss, testHasher, fakeCheckout{}, DefaultTokenPolicy())

	if _, err := s.UpdateProfile(ctx, a.ID, model.ProfileUpdate{Email: "x@example.com"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation, got %v", err)
	}

	// empty password keeps the stored hash
	oldHash := users.byID[a.ID].PasswordHash
	access, err := s.UpdateProfile(ctx, a.ID, model.ProfileUpdate{Name: "Alice B", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if users.byID[a.ID].PasswordHash != oldHash {
		t.Fatalf("password must be kept when not supplied")
	}
	claims, err := iss.VerifyAccess(access)
	if err != nil || claims.UserInfo.Name != "Alice B" {
		t.Fatalf("reissued token must carry new name: %v %+v", err, claims)
	}
	if d := time.Until(claims.ExpiresAt.Time); d > 31*time.Minute {
		t.Fatalf("profile update uses the short ttl, got %v", d)
	}

	if _, err := s.UpdateProfile(ctx, a.ID, model.ProfileUpdate{Name: "A", Email: "a@example.com", Password: "new"}); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if !testHasher.Verify("new", users.byID[a.ID].PasswordHash) {
		t.Fatalf("new password must be hashed and stored")
	}

	if _, err := s.UpdateProfile(ctx, a.ID, model.ProfileUpdate{Name: "A", Email: "b@example.com"}); !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("want conflict on taken email, got %v", err)
	}
}

func TestUsers_Subscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := newFakeUsers()
	a := seed(t, users, "a@example.com", "pw")
	iss := newTestIssuer(t)

	s := NewUserService(users, iss, testHasher, fakeCheckout{err: errors.New("billing down")}, DefaultTokenPolicy())
	if _, err := s.Subscribe(ctx, a.ID); err == nil {
		t.Fatalf("want checkout error")
	}
	if slices.Contains(users.byID[a.ID].Roles, model.RolePro) {
		t.Fatalf("role must not be granted when checkout fails")
	}

	s = NewUserService(users, iss, testHasher, fakeCheckout{url: "https://pay.example.com/s/1"}, DefaultTokenPolicy())
	sub, err := s.Subscribe(ctx, a.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.URL != "https://pay.example.com/s/1" {
		t.Fatalf("url: %q", sub.URL)
	}
	claims, err := iss.VerifyAccess(sub.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !slices.Equal(claims.UserInfo.Roles, []string{model.RoleBasic, model.RolePro}) {
		t.Fatalf("roles: %v", claims.UserInfo.Roles)
	}
	if d := time.Until(claims.ExpiresAt.Time); d < 23*time.Hour {
		t.Fatalf("role grant uses the long ttl, got %v", d)
	}

	// granting twice keeps a single entry
	if _, err := s.Subscribe(ctx, a.ID); err != nil {
		t.Fatalf("subscribe again: %v", err)
	}
	if got := users.byID[a.ID].Roles; len(got) != 2 {
		t.Fatalf("roles duplicated: %v", got)
	}
}

func TestStaticCheckout(t *testing.T) {
	t.Parallel()
	if _, err := (StaticCheckout{}).CreateSession(context.Background(), uuid.Nil); err == nil {
		t.Fatalf("want error without url")
	}
	url, err := StaticCheckout{URL: "https://x"}.CreateSession(context.Background(), uuid.Nil)
	if err != nil || url != "https://x" {
		t.Fatalf("url=%q err=%v", url, err)
	}
}

func TestUsers_ListAndDisable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := newFakeUsers()
	admin := seed(t, users, "admin@example.com", "pw")
	b := seed(t, users, "b@example.com", "pw")
	b.RefreshToken = "live"
	s := NewUserService(users, newTestIssuer(t), testHasher, fakeCheckout{}, DefaultTokenPolicy())

	list, err := s.List(ctx, admin.ID)
	if err != nil || len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("list: %v %+v", err, list)
	}

	if err := s.Disable(ctx, admin.ID, admin.ID); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("self-disable: want validation, got %v", err)
	}
	if err := s.Disable(ctx, admin.ID, b.ID); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if !users.byID[b.ID].Disabled || users.byID[b.ID].RefreshToken != "" {
		t.Fatalf("disable must flag the account and end its session")
	}
	if err := s.Disable(ctx, admin.ID, uuid.Must(uuid.NewV4())); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown target: want not found, got %v", err)
	}
}
