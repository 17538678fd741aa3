// Package authz carries the authenticated actor supplied by the upstream
// identity provider and performs the ownership checks the core is
// responsible for.
package authz

import (
	"context"
	"errors"

	"github.com/courtsidehq/courtside/internal/apperr"
)

const (
	RoleUser          = "user"
	RoleFacilityOwner = "facility_owner"
	RoleAdmin         = "admin"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Actor is the identity resolved by the upstream gateway. The core trusts it
// and layers its own ownership checks on top.
type Actor struct {
	UserID int64
	Role   string
}

type actorContextKey struct{}

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext retrieves the Actor stored in ctx, or nil.
func ActorFromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	actor, ok := ctx.Value(actorContextKey{}).(*Actor)
	if !ok {
		return nil
	}
	return actor
}

// RequireActor returns the actor in ctx or ErrUnauthenticated.
func RequireActor(ctx context.Context) (*Actor, error) {
	actor := ActorFromContext(ctx)
	if actor == nil || actor.UserID <= 0 {
		return nil, ErrUnauthenticated
	}
	return actor, nil
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// RequireFacilityOwner checks that the actor may manage a facility owned by
// ownerID. Admins pass unconditionally.
func RequireFacilityOwner(actor *Actor, ownerID int64) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role == RoleFacilityOwner && actor.UserID == ownerID {
		return nil
	}
	return apperr.Forbiddenf("not the facility owner")
}

// RequireBookingOwner checks that the actor owns the booking. Admins pass.
func RequireBookingOwner(actor *Actor, bookingUserID int64) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.UserID == bookingUserID {
		return nil
	}
	return apperr.Forbiddenf("not the booking owner")
}
