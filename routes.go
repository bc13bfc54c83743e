package main

import (
	"github.com/gofiber/fiber/v3"
	"github.com/thebrando/brando/admin"
	"github.com/thebrando/brando/auth"
	"github.com/thebrando/brando/booking"
	"github.com/thebrando/brando/cart"
	"github.com/thebrando/brando/config"
	"github.com/thebrando/brando/payment"
	"github.com/thebrando/brando/room"
	"github.com/thebrando/brando/user"
)

func authRoutes(r fiber.Router, s *services, cfg config.Config) {
	h := auth.NewHandler(s.tokens, s.users, cfg.CookieName, cfg.CookieSecure)
	r.Post("/register", user.NewHandler(s.users).Register)
	r.Post("/token", h.Issue)
	r.Post("/logout", h.Logout)
}

// public inventory
func roomRoutes(r fiber.Router, s *services) {
	h := room.NewHandler(s.rooms)
	r.Get("", h.List) // optional_parameter [page, limit]
	r.Get("/popular", h.Popular)
	r.Get("/count", h.Count)
	r.Get("/:id", h.GetByID)
}

func cartRoutes(r fiber.Router, s *services) {
	h := cart.NewHandler(s.carts)
	r.Get("", h.List)
	r.Post("", h.Add)
	r.Patch("/:id", h.SetStatus)
	r.Post("/:id/cancel", h.Cancel)
	r.Delete("/:id", h.Remove)
}

func bookingRoutes(r fiber.Router, s *services) {
	h := booking.NewHandler(s.bookings)
	r.Get("", h.List)
	r.Get("/:id", h.GetByID)
	r.Post("", h.Book)
	r.Post("/:id/cancel", h.Cancel)
}

func paymentRoutes(r fiber.Router, s *services) {
	h := payment.NewHandler(s.payments)
	r.Post("/intent", h.CreateIntent)
	r.Post("", h.Confirm)
	r.Get("", h.List)
}

func userRoutes(r fiber.Router, s *services) {
	h := user.NewHandler(s.users)
	r.Post("", h.Create)
	r.Get("/admin/:email", h.IsAdmin)
}

// everything below requires the admin role
func adminRoutes(r fiber.Router, s *services) {
	h := admin.NewHandler(s.admin)
	r.Post("/rooms", h.CreateRoom)
	r.Patch("/rooms/:id/status", h.SetRoomStatus)
	r.Delete("/rooms/:id", h.DeleteRoom)
	r.Patch("/users/:id/role", h.SetUserRole)

	r.Get("/users", h.Users)
	r.Get("/carts", h.Carts)
	r.Get("/bookings", h.Bookings)
	r.Get("/payments", h.Payments)
	r.Get("/payments/unsettled", h.Unsettled)
	r.Post("/payments/:id/reconcile", h.Reconcile)

	r.Get("/stats", h.Stats)
	r.Get("/stats/export", h.ExportStats)
}
