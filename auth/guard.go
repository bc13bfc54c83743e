package auth

import (
	"context"

	"github.com/thebrando/brando/apperror"
)

// RoleLookup reports whether the user with email holds the admin role.
type RoleLookup interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type Guard struct {
	tokens *Tokens
	roles  RoleLookup
	cookie string
}

func NewGuard(tokens *Tokens, roles RoleLookup, cookieName string) *Guard {
	if cookieName == "" {
		cookieName = "token"
	}
	return &Guard{tokens: tokens, roles: roles, cookie: cookieName}
}

func (g *Guard) Authenticate(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, apperror.Unauthenticatedf("unauthorized access")
	}
	return g.tokens.Verify(raw)
}

// AuthorizeAdmin looks the caller up on every call; roles are not cached in
// the credential.
func (g *Guard) AuthorizeAdmin(ctx context.Context, id Identity) error {
	ok, err := g.roles.IsAdmin(ctx, id.Email)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.AccessDeniedf("forbidden access")
	}
	return nil
}

// AuthorizeOwner fails with AccessDenied unless id is the owner email.
func AuthorizeOwner(id Identity, email string) error {
	if id.Email == "" || id.Email != email {
		return apperror.AccessDeniedf("forbidden access")
	}
	return nil
}
