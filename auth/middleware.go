package auth

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/apperror"
)

type identityKey struct{}

// RequireAuth reads the credential from the cookie or a bearer header and
// stores the Identity for the handlers behind it.
func (g *Guard) RequireAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := g.Authenticate(g.credential(c))
		if err != nil {
			return err
		}
		c.Locals(identityKey{}, id)
		return c.Next()
	}
}

// AdminOnly must run after RequireAuth.
func (g *Guard) AdminOnly() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, err := IdentityFrom(c)
		if err != nil {
			return err
		}
		if err := g.AuthorizeAdmin(c.UserContext(), id); err != nil {
			return err
		}
		return c.Next()
	}
}

func IdentityFrom(c fiber.Ctx) (Identity, error) {
	id, ok := c.Locals(identityKey{}).(Identity)
	if !ok {
		return Identity{}, apperror.Unauthenticatedf("unauthorized access")
	}
	return id, nil
}

// Owner resolves the email a user-scoped request is about, defaulting to the
// caller, and checks the caller owns it.
func Owner(c fiber.Ctx, email string) (Identity, string, error) {
	id, err := IdentityFrom(c)
	if err != nil {
		return Identity{}, "", err
	}
	if email == "" {
		email = id.Email
	}
	if err := AuthorizeOwner(id, email); err != nil {
		return Identity{}, "", err
	}
	return id, email, nil
}

func (g *Guard) credential(c fiber.Ctx) string {
	if v := c.Cookies(g.cookie); v != "" {
		return v
	}
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
