package httpserver

import (
	"context"
	"testing"

	"github.com/and161185/recipen/internal/model"
	"github.com/gofrs/uuid/v5"
)

func TestWithIdentity_And_IdentityFromCtx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, ok := IdentityFromCtx(ctx); ok {
		t.Fatalf("empty ctx must not carry an identity")
	}

	want := model.Identity{UserID: uuid.Must(uuid.NewV4()), Roles: []string{model.RoleAdmin}}
	got, ok := IdentityFromCtx(WithIdentity(ctx, want))
	if !ok || got.UserID != want.UserID || len(got.Roles) != 1 {
		t.Fatalf("identity mismatch: %+v ok=%v", got, ok)
	}

	// wrong type under the key is ignored
	bad := context.WithValue(ctx, identityKey, "nope")
	if _, ok := IdentityFromCtx(bad); ok {
		t.Fatalf("wrong value type must not be accepted")
	}
}

func TestRequestIDFromCtx(t *testing.T) {
	t.Parallel()

	if RequestIDFromCtx(context.Background()) != "" {
		t.Fatalf("expected empty id")
	}
	ctx := context.WithValue(context.Background(), requestIDKey, "abc")
	if RequestIDFromCtx(ctx) != "abc" {
		t.Fatalf("expected abc")
	}
}
