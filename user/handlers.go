package user

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register is the public sign-up. The account can then log in through
// POST /auth/token.
func (h *Handler) Register(c fiber.Ctx) error {
	req := new(registerRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}

	u := &User{Email: req.Email, Name: req.Name}
	if err := h.store.Register(c.UserContext(), u, req.Password); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(u)
}

// Create registers the caller. New users are always guests.
func (h *Handler) Create(c fiber.Ctx) error {
	req := new(createRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	_, email, err := auth.Owner(c, req.Email)
	if err != nil {
		return err
	}

	u := &User{Email: email, Name: req.Name, Role: Guest}
	if err := h.store.Create(c.UserContext(), u); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(u)
}

func (h *Handler) IsAdmin(c fiber.Ctx) error {
	_, email, err := auth.Owner(c, c.Params("email"))
	if err != nil {
		return err
	}
	ok, err := h.store.IsAdmin(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"admin": ok})
}
