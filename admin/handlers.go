package admin

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/room"
	"github.com/thebrando/brando/user"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateRoom(c fiber.Ctx) error {
	r := new(room.Room)
	if err := c.Bind().JSON(r); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	r.ID = ""
	if err := h.svc.CreateRoom(c.UserContext(), r); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(r)
}

func (h *Handler) SetRoomStatus(c fiber.Ctx) error {
	req := new(struct {
		Status room.Status `json:"status"`
	})
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	r, err := h.svc.SetRoomStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(r)
}

func (h *Handler) DeleteRoom(c fiber.Ctx) error {
	if err := h.svc.DeleteRoom(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) SetUserRole(c fiber.Ctx) error {
	req := new(struct {
		Role user.Role `json:"role"`
	})
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	u, err := h.svc.SetUserRole(c.UserContext(), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(u)
}

func (h *Handler) Users(c fiber.Ctx) error {
	out, err := h.svc.Users(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) Carts(c fiber.Ctx) error {
	out, err := h.svc.Carts(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) Bookings(c fiber.Ctx) error {
	out, err := h.svc.Bookings(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) Payments(c fiber.Ctx) error {
	out, err := h.svc.Payments(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) Unsettled(c fiber.Ctx) error {
	out, err := h.svc.Unsettled(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(out)
}

func (h *Handler) Reconcile(c fiber.Ctx) error {
	receipt, err := h.svc.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(receipt)
}

func (h *Handler) Stats(c fiber.Ctx) error {
	st, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(st)
}

func (h *Handler) ExportStats(c fiber.Ctx) error {
	b, err := h.svc.ExportXLSX(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="summary.xlsx"`)
	return c.Status(http.StatusOK).Send(b)
}
