package booking

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type bookRequest struct {
	Email string `json:"email"`
	Request
}

// List params {email}
func (h *Handler) List(c fiber.Ctx) error {
	_, email, err := auth.Owner(c, c.Query("email"))
	if err != nil {
		return err
	}
	out, err := h.svc.ListForOwner(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) GetByID(c fiber.Ctx) error {
	id, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	b, err := h.svc.Get(c.UserContext(), c.Params("id"), id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(b)
}

func (h *Handler) Book(c fiber.Ctx) error {
	req := new(bookRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	_, email, err := auth.Owner(c, req.Email)
	if err != nil {
		return err
	}

	b, err := h.svc.Book(c.UserContext(), email, req.Request)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(b)
}

func (h *Handler) Cancel(c fiber.Ctx) error {
	id, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	b, err := h.svc.Cancel(c.UserContext(), c.Params("id"), id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(b)
}
