// Package admin holds the operations that bypass ownership checks. Every
// route into it is behind the admin guard.
package admin

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/booking"
	"github.com/thebrando/brando/cart"
	"github.com/thebrando/brando/payment"
	"github.com/thebrando/brando/room"
	"github.com/thebrando/brando/user"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	users    *user.Store
	rooms    *room.Service
	carts    *cart.Store
	bookings *booking.Store
	payments *payment.Coordinator
}

func NewService(db *gorm.DB, users *user.Store, rooms *room.Service, carts *cart.Store, bookings *booking.Store, payments *payment.Coordinator) *Service {
	return &Service{db: db, users: users, rooms: rooms, carts: carts, bookings: bookings, payments: payments}
}

func (s *Service) CreateRoom(ctx context.Context, r *room.Room) error {
	return s.rooms.Create(ctx, r)
}

// SetRoomStatus forces a room status. A room held by a confirmed booking
// cannot be made Available.
func (s *Service) SetRoomStatus(ctx context.Context, id string, status room.Status) (*room.Room, error) {
	if !status.Valid() {
		return nil, apperror.Invalidf("unknown room status %q", status)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status == room.Available {
			active, err := s.bookings.WithTx(tx).CountActiveForRoom(ctx, id)
			if err != nil {
				return err
			}
			if active > 0 {
				return apperror.Conflictf("room %s has %d confirmed bookings", id, active)
			}
		}
		return s.rooms.Store().WithTx(tx).SetStatus(ctx, id, status)
	})
	if err != nil {
		return nil, err
	}
	s.rooms.Invalidate(ctx, id)
	return s.rooms.GetByID(ctx, id)
}

func (s *Service) DeleteRoom(ctx context.Context, id string) error {
	return s.rooms.Delete(ctx, id)
}

func (s *Service) SetUserRole(ctx context.Context, id string, role user.Role) (*user.User, error) {
	return s.users.SetRole(ctx, id, role)
}

func (s *Service) Users(ctx context.Context) ([]user.User, error) {
	return s.users.List(ctx)
}

func (s *Service) Carts(ctx context.Context) ([]cart.Entry, error) {
	return s.carts.ListAll(ctx)
}

func (s *Service) Bookings(ctx context.Context) ([]booking.Booking, error) {
	return s.bookings.ListAll(ctx)
}

func (s *Service) Payments(ctx context.Context) ([]payment.Payment, error) {
	return s.payments.ListAll(ctx)
}

func (s *Service) Unsettled(ctx context.Context) ([]payment.Payment, error) {
	return s.payments.Unsettled(ctx)
}

func (s *Service) Reconcile(ctx context.Context, paymentID string) (*payment.Receipt, error) {
	return s.payments.Reconcile(ctx, paymentID)
}

// Stats counts every collection concurrently and folds the settled part of
// the ledger into revenue totals.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		st                 Stats
		settled, unsettled []payment.Payment
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.Users, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.Rooms, err = s.rooms.Store().Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.Bookings, err = s.bookings.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		settled, unsettled, err = s.payments.Ledger().Partition(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st.Payments = int64(len(settled) + len(unsettled))
	st.Revenue, st.ByDay = foldLedger(settled)
	st.UnsettledPayments = int64(len(unsettled))
	st.UnsettledRevenue, _ = foldLedger(unsettled)
	return &st, nil
}

// ExportXLSX renders Stats as a workbook.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	st, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	f, err := st.workbook()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}
