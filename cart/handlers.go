package cart

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

type addRequest struct {
	Email  string `json:"email"`
	RoomID string `json:"roomId"`
}

type statusRequest struct {
	OrderStatus OrderStatus `json:"orderStatus"`
}

// List params {email}
func (h *Handler) List(c fiber.Ctx) error {
	_, email, err := auth.Owner(c, c.Query("email"))
	if err != nil {
		return err
	}
	entries, err := h.svc.ListForOwner(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(entries)
}

func (h *Handler) Add(c fiber.Ctx) error {
	req := new(addRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	_, email, err := auth.Owner(c, req.Email)
	if err != nil {
		return err
	}

	e, err := h.svc.Add(c.UserContext(), email, req.RoomID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(e)
}

func (h *Handler) SetStatus(c fiber.Ctx) error {
	req := new(statusRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	id, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}

	e, err := h.svc.SetStatus(c.UserContext(), c.Params("id"), req.OrderStatus, id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(e)
}

func (h *Handler) Cancel(c fiber.Ctx) error {
	id, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	e, err := h.svc.Cancel(c.UserContext(), c.Params("id"), id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(e)
}

func (h *Handler) Remove(c fiber.Ctx) error {
	id, err := auth.IdentityFrom(c)
	if err != nil {
		return err
	}
	if err := h.svc.Remove(c.UserContext(), c.Params("id"), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
