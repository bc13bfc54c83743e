package room

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/apperror"
)

const defaultPageSize = 10

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List params {page, limit}
func (h *Handler) List(c fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		return err
	}

	rooms, err := h.svc.GetPage(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(rooms)
}

func (h *Handler) Popular(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit", DefaultPopular)
	if err != nil {
		return err
	}
	rooms, err := h.svc.GetAvailable(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(rooms)
}

func (h *Handler) Count(c fiber.Ctx) error {
	n, err := h.svc.Count(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"count": n})
}

func (h *Handler) GetByID(c fiber.Ctx) error {
	r, err := h.svc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(r)
}

func queryInt(c fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Invalidf("%s must be an integer", key)
	}
	return n, nil
}
