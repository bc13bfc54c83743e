package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebrando/brando/apperror"
)

type roles map[string]bool

func (r roles) IsAdmin(_ context.Context, email string) (bool, error) {
	return r[email], nil
}

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	raw, exp, err := tokens.Issue("guest@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", id.Email)

	_, err = NewTokens("other", time.Hour).Verify(raw)
	assert.True(t, apperror.Is(err, apperror.InvalidCredential))

	_, _, err = tokens.Issue("")
	assert.True(t, apperror.Is(err, apperror.Invalid))
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := tokens.Issue("guest@example.com")
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(raw)
	assert.True(t, apperror.Is(err, apperror.InvalidCredential))
}

func TestVerifyRejectsTokenWithoutExpiry(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "a@b.c"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = NewTokens("s3cret", time.Hour).Verify(raw)
	assert.True(t, apperror.Is(err, apperror.InvalidCredential))
}

func TestGuard(t *testing.T) {
	g := NewGuard(NewTokens("s3cret", time.Hour), roles{"admin@example.com": true}, "")
	ctx := context.Background()

	_, err := g.Authenticate("")
	assert.True(t, apperror.Is(err, apperror.Unauthenticated))
	_, err = g.Authenticate("garbage")
	assert.True(t, apperror.Is(err, apperror.InvalidCredential))

	assert.NoError(t, g.AuthorizeAdmin(ctx, Identity{Email: "admin@example.com"}))
	assert.True(t, apperror.Is(g.AuthorizeAdmin(ctx, Identity{Email: "guest@example.com"}), apperror.AccessDenied))

	assert.NoError(t, AuthorizeOwner(Identity{Email: "a@example.com"}, "a@example.com"))
	assert.True(t, apperror.Is(AuthorizeOwner(Identity{Email: "a@example.com"}, "b@example.com"), apperror.AccessDenied))
	assert.True(t, apperror.Is(AuthorizeOwner(Identity{}, ""), apperror.AccessDenied))
}

type passwords map[string]string

func (p passwords) CheckPassword(_ context.Context, email, password string) error {
	if want, ok := p[email]; !ok || want != password {
		return apperror.InvalidCredentialf("invalid email or password")
	}
	return nil
}

func newApp(g *Guard, tokens *Tokens) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.Handler(logrus.NewEntry(logrus.New()))})
	h := NewHandler(tokens, passwords{"guest@example.com": "hunter22"}, "token", false)
	app.Post("/auth/token", h.Issue)
	app.Post("/auth/logout", h.Logout)
	app.Get("/me", g.RequireAuth(), func(c fiber.Ctx) error {
		id, _, err := Owner(c, c.Query("email"))
		if err != nil {
			return err
		}
		return c.JSON(id)
	})
	app.Get("/admin", g.RequireAuth(), g.AdminOnly(), func(c fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	g := NewGuard(tokens, roles{"admin@example.com": true}, "token")
	app := newApp(g, tokens)

	guest, _, err := tokens.Issue("guest@example.com")
	require.NoError(t, err)
	admin, _, err := tokens.Issue("admin@example.com")
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		bearer string
		cookie string
		status int
	}{
		{"no credential", "/me", "", "", http.StatusUnauthorized},
		{"bad credential", "/me", "nope", "", http.StatusForbidden},
		{"bearer", "/me", guest, "", http.StatusOK},
		{"cookie", "/me", "", guest, http.StatusOK},
		{"other owner", "/me?email=admin@example.com", guest, "", http.StatusForbidden},
		{"guest on admin route", "/admin", guest, "", http.StatusForbidden},
		{"admin", "/admin", admin, "", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tc.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestIssueHandlerSetsCookie(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	app := newApp(NewGuard(tokens, roles{}, "token"), tokens)

	req := httptest.NewRequest(http.MethodPost, "/auth/token", jsonBody(t, map[string]string{
		"email":    "guest@example.com",
		"password": "hunter22",
	}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	id, err := tokens.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", id.Email)

	var found bool
	for _, ck := range resp.Cookies() {
		if ck.Name == "token" {
			found = true
			assert.Equal(t, body.Token, ck.Value)
			assert.True(t, ck.HttpOnly)
		}
	}
	assert.True(t, found)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIssueHandlerRequiresPassword(t *testing.T) {
	tokens := NewTokens("s3cret", time.Hour)
	app := newApp(NewGuard(tokens, roles{}, "token"), tokens)

	cases := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"email only", map[string]string{"email": "guest@example.com"}, http.StatusBadRequest},
		{"wrong password", map[string]string{"email": "guest@example.com", "password": "nope"}, http.StatusForbidden},
		{"unknown email", map[string]string{"email": "admin@example.com", "password": "hunter22"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/token", jsonBody(t, tc.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Empty(t, resp.Cookies())
		})
	}
}
