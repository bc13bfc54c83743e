// Package payment records payments in an append-only ledger and settles them
// into bookings.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/booking"
	"github.com/thebrando/brando/cart"
	"github.com/thebrando/brando/events"
	"github.com/thebrando/brando/room"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "github.com/thebrando/brando/payment"

type Intent struct {
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
	Provider     string `json:"provider"`
}

// ConfirmRequest is a completed external payment plus the bookings it pays
// for. An empty ID gets a generated one; resend the returned id to retry.
type ConfirmRequest struct {
	ID            string        `json:"_id"`
	Email         string        `json:"email"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	TransactionID string        `json:"transactionId"`
	RoomIDs       []string      `json:"roomIds"`
	CartIDs       []string      `json:"cartIds"`
	Bookings      []Reservation `json:"bookings"`
}

type Coordinator struct {
	db       *gorm.DB
	ledger   *Store
	rooms    *room.Service
	carts    *cart.Store
	bookings *booking.Store
	provider Provider
	currency string
	pub      events.Publisher
	log      *logrus.Entry
	tracer   trace.Tracer
	now      func() time.Time
}

type Deps struct {
	DB       *gorm.DB
	Ledger   *Store
	Rooms    *room.Service
	Carts    *cart.Store
	Bookings *booking.Store
	Provider Provider
	Currency string
	Events   events.Publisher
	Log      *logrus.Entry
}

func NewCoordinator(d Deps) *Coordinator {
	currency := strings.ToLower(d.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &Coordinator{
		db:       d.DB,
		ledger:   d.Ledger,
		rooms:    d.Rooms,
		carts:    d.Carts,
		bookings: d.Bookings,
		provider: d.Provider,
		currency: currency,
		pub:      d.Events,
		log:      d.Log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

func (c *Coordinator) Ledger() *Store { return c.ledger }

func (c *Coordinator) CreateIntent(ctx context.Context, price float64, currency string) (*Intent, error) {
	cents, err := AmountCents(price)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = c.currency
	}
	currency = strings.ToLower(currency)

	ctx, span := c.tracer.Start(ctx, "payment.create_intent", trace.WithAttributes(
		attribute.Int64("payment.amount_cents", cents),
		attribute.String("payment.currency", currency),
	))
	defer span.End()

	secret, err := c.provider.CreateIntent(ctx, cents, currency)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider")
		return nil, apperror.Upstreamf(err, "create payment intent")
	}
	return &Intent{ClientSecret: secret, AmountCents: cents, Currency: currency, Provider: c.provider.Name()}, nil
}

// Confirm appends the payment to the ledger and settles it. A Conflict leaves
// the payment recorded but unsettled; Reconcile or a resend with the same id
// retries. Settled payments return their receipt.
func (c *Coordinator) Confirm(ctx context.Context, req ConfirmRequest) (*Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "payment.confirm")
	defer span.End()

	p, err := c.newPayment(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("payment.id", p.ID),
		attribute.Int("payment.rooms", len(p.RoomIDs)),
	)

	inserted, err := c.ledger.Append(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger")
		return nil, err
	}
	if inserted {
		events.Emit(ctx, c.pub, c.log, events.PaymentRecorded, p)
	} else {
		stored, err := c.ledger.ByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if stored.Email != p.Email {
			return nil, apperror.Conflictf("payment %s belongs to another payer", p.ID)
		}
		p = stored
	}

	receipt, err := c.settle(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.KindOf(err).String())
		return nil, err
	}
	return receipt, nil
}

// Reconcile retries settlement of a recorded payment.
func (c *Coordinator) Reconcile(ctx context.Context, paymentID string) (*Receipt, error) {
	ctx, span := c.tracer.Start(ctx, "payment.reconcile", trace.WithAttributes(attribute.String("payment.id", paymentID)))
	defer span.End()

	p, err := c.ledger.ByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	receipt, err := c.settle(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperror.KindOf(err).String())
	}
	return receipt, err
}

func (c *Coordinator) Unsettled(ctx context.Context) ([]Payment, error) {
	return c.ledger.Unsettled(ctx)
}

func (c *Coordinator) ListForOwner(ctx context.Context, email string) ([]Payment, error) {
	return c.ledger.ListForOwner(ctx, email)
}

func (c *Coordinator) ListAll(ctx context.Context) ([]Payment, error) {
	return c.ledger.All(ctx)
}

func (c *Coordinator) Receipt(ctx context.Context, paymentID string) (*Receipt, error) {
	p, err := c.ledger.ByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return c.receipt(ctx, p)
}

// settle runs cart consumption, room reservation, booking insertion and the
// settlement mark in one transaction. Other guests' pending entries for the
// taken rooms are cancelled along with it.
func (c *Coordinator) settle(ctx context.Context, p *Payment) (*Receipt, error) {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := c.ledger.WithTx(tx).MarkSettled(ctx, p.ID, c.now().UTC())
		if err != nil || !fresh {
			return err
		}
		if err := c.carts.WithTx(tx).Consume(ctx, p.CartIDs, p.Email); err != nil {
			return err
		}
		if err := c.rooms.Store().WithTx(tx).Reserve(ctx, p.RoomIDs); err != nil {
			return err
		}
		if _, err := c.carts.WithTx(tx).CancelPendingForRooms(ctx, p.RoomIDs); err != nil {
			return err
		}

		out := make([]*booking.Booking, 0, len(p.Reservations))
		for _, r := range p.Reservations {
			out = append(out, &booking.Booking{
				Email:     r.Email,
				RoomID:    r.RoomID,
				PaymentID: p.ID,
				Status:    booking.Confirmed,
				CheckIn:   r.CheckIn,
				CheckOut:  r.CheckOut,
			})
		}
		return c.bookings.WithTx(tx).Create(ctx, out...)
	})
	if err != nil {
		if apperror.Is(err, apperror.Conflict) {
			c.log.WithError(err).WithField("payment_id", p.ID).Warn("payment left unsettled")
			events.Emit(ctx, c.pub, c.log, events.PaymentConflicted, map[string]any{
				"payment_id": p.ID,
				"reason":     err.Error(),
			})
		}
		return nil, err
	}

	c.rooms.Invalidate(ctx, p.RoomIDs...)
	receipt, err := c.receipt(ctx, p)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, c.pub, c.log, events.PaymentSettled, receipt)
	return receipt, nil
}

func (c *Coordinator) receipt(ctx context.Context, p *Payment) (*Receipt, error) {
	st, err := c.ledger.Settlement(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out := &Receipt{Payment: *p, Bookings: []booking.Booking{}}
	if st == nil {
		return out, nil
	}
	out.Settled = true
	out.SettledAt = &st.SettledAt
	if out.Bookings, err = c.bookings.ByPayment(ctx, p.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Coordinator) newPayment(req ConfirmRequest) (*Payment, error) {
	if req.Email == "" {
		return nil, apperror.Invalidf("email is required")
	}
	if _, err := AmountCents(req.Amount); err != nil {
		return nil, err
	}
	rooms := dedupe(req.RoomIDs)
	if len(rooms) == 0 {
		return nil, apperror.Invalidf("roomIds must not be empty")
	}
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			return nil, apperror.Invalidf("payment id must be a uuid")
		}
	}

	requested := make(map[string]struct{}, len(rooms))
	for _, id := range rooms {
		requested[id] = struct{}{}
	}

	reservations := req.Bookings
	if len(reservations) == 0 {
		for _, id := range rooms {
			reservations = append(reservations, Reservation{RoomID: id})
		}
	}
	seen := make(map[string]struct{}, len(reservations))
	out := make([]Reservation, 0, len(reservations))
	for _, r := range reservations {
		if _, ok := requested[r.RoomID]; !ok {
			return nil, apperror.Invalidf("booking for room %q is not covered by the payment", r.RoomID)
		}
		if _, dup := seen[r.RoomID]; dup {
			return nil, apperror.Invalidf("room %s is booked twice", r.RoomID)
		}
		seen[r.RoomID] = struct{}{}
		if r.Email == "" {
			r.Email = req.Email
		}
		if r.Email != req.Email {
			return nil, apperror.AccessDeniedf("bookings must belong to the payer")
		}
		if r.CheckIn != nil && r.CheckOut != nil && !r.CheckOut.After(*r.CheckIn) {
			return nil, apperror.Invalidf("checkOut must be after checkIn")
		}
		out = append(out, r)
	}

	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = c.currency
	}
	return &Payment{
		ID:            req.ID,
		Email:         req.Email,
		Amount:        req.Amount,
		Currency:      currency,
		TransactionID: req.TransactionID,
		RoomIDs:       rooms,
		CartIDs:       dedupe(req.CartIDs),
		Reservations:  out,
	}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
