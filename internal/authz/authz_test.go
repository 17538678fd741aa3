package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/courtsidehq/courtside/internal/apperr"
)

func TestRequireActor(t *testing.T) {
	if _, err := RequireActor(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("empty context: %v, want ErrUnauthenticated", err)
	}

	ctx := ContextWithActor(context.Background(), &Actor{UserID: 7, Role: RoleUser})
	actor, err := RequireActor(ctx)
	if err != nil {
		t.Fatalf("RequireActor: %v", err)
	}
	if actor.UserID != 7 {
		t.Fatalf("user id = %d, want 7", actor.UserID)
	}
}

func TestRequireFacilityOwner(t *testing.T) {
	owner := &Actor{UserID: 10, Role: RoleFacilityOwner}
	if err := RequireFacilityOwner(owner, 10); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}

	stranger := &Actor{UserID: 11, Role: RoleFacilityOwner}
	if err := RequireFacilityOwner(stranger, 10); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("other owner: %v, want forbidden", err)
	}

	user := &Actor{UserID: 10, Role: RoleUser}
	if err := RequireFacilityOwner(user, 10); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("plain user: %v, want forbidden", err)
	}

	admin := &Actor{UserID: 99, Role: RoleAdmin}
	if err := RequireFacilityOwner(admin, 10); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
}

func TestRequireBookingOwner(t *testing.T) {
	owner := &Actor{UserID: 7, Role: RoleUser}
	if err := RequireBookingOwner(owner, 7); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := RequireBookingOwner(owner, 8); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("stranger: %v, want forbidden", err)
	}
	admin := &Actor{UserID: 99, Role: RoleAdmin}
	if err := RequireBookingOwner(admin, 7); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
}
