package payment

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
)

type Handler struct {
	coord *Coordinator
}

func NewHandler(coord *Coordinator) *Handler {
	return &Handler{coord: coord}
}

type intentRequest struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

func (h *Handler) CreateIntent(c fiber.Ctx) error {
	req := new(intentRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	intent, err := h.coord.CreateIntent(c.UserContext(), req.Price, req.Currency)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(intent)
}

type confirmRequest struct {
	Payment  ConfirmRequest `json:"payment"`
	Bookings []Reservation  `json:"bookings"`
}

func (h *Handler) Confirm(c fiber.Ctx) error {
	req := new(confirmRequest)
	if err := c.Bind().JSON(req); err != nil {
		return apperror.Invalidf("invalid request body")
	}
	_, email, err := auth.Owner(c, req.Payment.Email)
	if err != nil {
		return err
	}
	req.Payment.Email = email
	if len(req.Bookings) > 0 {
		req.Payment.Bookings = req.Bookings
	}

	receipt, err := h.coord.Confirm(c.UserContext(), req.Payment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(receipt)
}

// List params {email}
func (h *Handler) List(c fiber.Ctx) error {
	_, email, err := auth.Owner(c, c.Query("email"))
	if err != nil {
		return err
	}
	out, err := h.coord.ListForOwner(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(out)
}
