// Package booking holds confirmed stays and their cancellation.
package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
	"github.com/thebrando/brando/cart"
	"github.com/thebrando/brando/events"
	"github.com/thebrando/brando/room"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	store *Store
	rooms *room.Service
	carts *cart.Store
	pub   events.Publisher
	log   *logrus.Entry
}

func NewService(db *gorm.DB, store *Store, rooms *room.Service, carts *cart.Store, pub events.Publisher, log *logrus.Entry) *Service {
	return &Service{db: db, store: store, rooms: rooms, carts: carts, pub: pub, log: log}
}

func (s *Service) Store() *Store { return s.store }

type Request struct {
	RoomID   string     `json:"roomId"`
	CheckIn  *time.Time `json:"checkIn,omitempty"`
	CheckOut *time.Time `json:"checkOut,omitempty"`
}

func (r Request) validate() error {
	if r.RoomID == "" {
		return apperror.Invalidf("roomId is required")
	}
	if r.CheckIn != nil && r.CheckOut != nil && !r.CheckOut.After(*r.CheckIn) {
		return apperror.Invalidf("checkOut must be after checkIn")
	}
	return nil
}

// Book reserves the room for email without going through a cart or payment.
func (s *Service) Book(ctx context.Context, email string, req Request) (*Booking, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, req.RoomID); err != nil {
		return nil, err
	}

	b := &Booking{Email: email, RoomID: req.RoomID, CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rooms.Store().WithTx(tx).Reserve(ctx, []string{req.RoomID}); err != nil {
			return err
		}
		if _, err := s.carts.WithTx(tx).CancelPendingForRooms(ctx, []string{req.RoomID}); err != nil {
			return err
		}
		return s.store.WithTx(tx).Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	s.rooms.Invalidate(ctx, req.RoomID)
	events.Emit(ctx, s.pub, s.log, events.BookingCreated, b)
	return b, nil
}

func (s *Service) ListForOwner(ctx context.Context, email string) ([]Booking, error) {
	return s.store.ListForOwner(ctx, email)
}

func (s *Service) ListAll(ctx context.Context) ([]Booking, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) Get(ctx context.Context, id string, requester auth.Identity) (*Booking, error) {
	b, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwner(requester, b.Email); err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel cancels the requester's booking. Cancelling twice returns the
// cancelled booking. The room goes back to Available once no confirmed
// booking references it.
func (s *Service) Cancel(ctx context.Context, id string, requester auth.Identity) (*Booking, error) {
	b, err := s.Get(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if b.Status == Cancelled {
		return b, nil
	}

	var changed bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings := s.store.WithTx(tx)
		var err error
		if changed, err = bookings.MarkCancelled(ctx, id); err != nil || !changed {
			return err
		}
		active, err := bookings.CountActiveForRoom(ctx, b.RoomID)
		if err != nil {
			return err
		}
		if active == 0 {
			_, err = s.rooms.Store().WithTx(tx).Release(ctx, b.RoomID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	b.Status = Cancelled
	if changed {
		s.rooms.Invalidate(ctx, b.RoomID)
		events.Emit(ctx, s.pub, s.log, events.BookingCancelled, b)
	}
	return b, nil
}
