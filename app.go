package main

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/thebrando/brando/admin"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
	"github.com/thebrando/brando/booking"
	"github.com/thebrando/brando/cache"
	"github.com/thebrando/brando/cart"
	"github.com/thebrando/brando/config"
	"github.com/thebrando/brando/events"
	"github.com/thebrando/brando/obs"
	"github.com/thebrando/brando/payment"
	"github.com/thebrando/brando/room"
	"github.com/thebrando/brando/user"
	"gorm.io/gorm"
)

// services is every component the routes need, wired to one database.
type services struct {
	tokens   *auth.Tokens
	guard    *auth.Guard
	users    *user.Store
	rooms    *room.Service
	carts    *cart.Service
	bookings *booking.Service
	payments *payment.Coordinator
	admin    *admin.Service
}

func newServices(cfg config.Config, db *gorm.DB, c cache.Cache, pub events.Publisher, provider payment.Provider, log *logrus.Logger) *services {
	tokens := auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL)
	users := user.NewStore(db)
	rooms := room.NewService(room.NewStore(db), c, cfg.CacheTTL, pub, obs.Component(log, "room"))
	cartStore := cart.NewStore(db)
	bookingStore := booking.NewStore(db)
	payments := payment.NewCoordinator(payment.Deps{
		DB:       db,
		Ledger:   payment.NewStore(db),
		Rooms:    rooms,
		Carts:    cartStore,
		Bookings: bookingStore,
		Provider: provider,
		Currency: cfg.PaymentCurrency,
		Events:   pub,
		Log:      obs.Component(log, "payment"),
	})

	return &services{
		tokens:   tokens,
		guard:    auth.NewGuard(tokens, users, cfg.CookieName),
		users:    users,
		rooms:    rooms,
		carts:    cart.NewService(cartStore, rooms, pub, obs.Component(log, "cart")),
		bookings: booking.NewService(db, bookingStore, rooms, cartStore, pub, obs.Component(log, "booking")),
		payments: payments,
		admin:    admin.NewService(db, users, rooms, cartStore, bookingStore, payments),
	}
}

func newHTTP(cfg config.Config, s *services, log *logrus.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "BRANDO",
		ErrorHandler: apperror.Handler(obs.Component(log, "http")),
	})

	app.Use(obs.RequestLogger(obs.Component(log, "http")))
	app.Use(fiberrecover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Brando is running")
	})

	api := app.Group("/api/v1")

	authRoutes(api.Group("/auth"), s, cfg)
	roomRoutes(api.Group("/rooms"), s)
	cartRoutes(api.Group("/carts", s.guard.RequireAuth()), s)
	bookingRoutes(api.Group("/bookings", s.guard.RequireAuth()), s)
	paymentRoutes(api.Group("/payments", s.guard.RequireAuth()), s)
	userRoutes(api.Group("/users", s.guard.RequireAuth()), s)
	adminRoutes(api.Group("/admin", s.guard.RequireAuth(), s.guard.AdminOnly()), s)

	return app
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&user.User{},
		&room.Room{},
		&cart.Entry{},
		&booking.Booking{},
		&payment.Payment{},
		&payment.Settlement{},
	)
	return errors.Wrap(err, "migrate")
}

func newCache(ctx context.Context, cfg config.Config) (cache.Cache, func() error, error) {
	if cfg.RedisAddr == "" {
		return cache.Nop{}, func() error { return nil }, nil
	}
	r, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return r, r.Close, nil
}

func newPublisher(cfg config.Config, log *logrus.Logger) (events.Publisher, error) {
	switch strings.ToLower(cfg.EventsDriver) {
	case "", "log":
		return events.NewLog(obs.Component(log, "events")), nil
	case "amqp", "rabbitmq":
		return events.NewAMQP(cfg.RabbitURL, cfg.EventsExchange)
	case "kafka":
		return events.NewKafka(cfg.KafkaBrokers)
	case "none":
		return nil, nil
	default:
		return nil, errors.Errorf("unsupported events driver %q", cfg.EventsDriver)
	}
}

func newProvider(cfg config.Config) (payment.Provider, error) {
	switch strings.ToLower(cfg.PaymentProvider) {
	case "stripe":
		return payment.NewStripe(cfg.StripeSecretKey)
	case "omise":
		return payment.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey, cfg.OmiseSourceType)
	default:
		return nil, errors.Errorf("unsupported payment provider %q", cfg.PaymentProvider)
	}
}
