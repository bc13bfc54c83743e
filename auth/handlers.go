package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/apperror"
)

// Credentials verifies a login.
type Credentials interface {
	CheckPassword(ctx context.Context, email, password string) error
}

type Handler struct {
	tokens *Tokens
	creds  Credentials
	cookie string
	secure bool
}

func NewHandler(tokens *Tokens, creds Credentials, cookieName string, secure bool) *Handler {
	if cookieName == "" {
		cookieName = "token"
	}
	return &Handler{tokens: tokens, creds: creds, cookie: cookieName, secure: secure}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Issue checks the posted email and password, then signs a credential and
// sets it as a cookie.
func (h *Handler) Issue(c fiber.Ctx) error {
	req := new(tokenRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.Invalidf("email and password are required")
	}
	if err := h.creds.CheckPassword(c.UserContext(), req.Email, req.Password); err != nil {
		return err
	}

	token, exp, err := h.tokens.Issue(req.Email)
	if err != nil {
		return err
	}

	c.Cookie(h.newCookie(token, exp))
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":   true,
		"token":     token,
		"expiresAt": exp,
	})
}

func (h *Handler) Logout(c fiber.Ctx) error {
	c.Cookie(h.newCookie("", time.Now().Add(-time.Hour)))
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Successfully logged out",
	})
}

func (h *Handler) newCookie(value string, exp time.Time) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteStrictMode
	if h.secure {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return &fiber.Cookie{
		Name:     h.cookie,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: sameSite,
	}
}
