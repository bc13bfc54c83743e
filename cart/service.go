// Package cart keeps the rooms each guest has selected before paying.
package cart

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
	"github.com/thebrando/brando/events"
	"github.com/thebrando/brando/room"
)

// RoomReader is the part of the inventory the cart needs.
type RoomReader interface {
	GetByID(ctx context.Context, id string) (*room.Room, error)
}

type Service struct {
	store *Store
	rooms RoomReader
	pub   events.Publisher
	log   *logrus.Entry
}

func NewService(store *Store, rooms RoomReader, pub events.Publisher, log *logrus.Entry) *Service {
	return &Service{store: store, rooms: rooms, pub: pub, log: log}
}

func (s *Service) Store() *Store { return s.store }

// Add puts roomID in email's cart. Room status is not changed.
func (s *Service) Add(ctx context.Context, email, roomID string) (*Entry, error) {
	if roomID == "" {
		return nil, apperror.Invalidf("roomId is required")
	}
	r, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if r.Status != room.Available {
		return nil, apperror.Conflictf("room %s is %s", r.ID, r.Status)
	}

	e := &Entry{Email: email, RoomID: r.ID, Title: r.Title, Price: r.Price}
	if err := s.store.Add(ctx, e); err != nil {
		return nil, err
	}
	events.Emit(ctx, s.pub, s.log, events.CartAdded, e)
	return e, nil
}

func (s *Service) ListForOwner(ctx context.Context, email string) ([]Entry, error) {
	return s.store.ListForOwner(ctx, email)
}

func (s *Service) ListAll(ctx context.Context) ([]Entry, error) {
	return s.store.ListAll(ctx)
}

// Owned loads an entry and checks the requester owns it.
func (s *Service) Owned(ctx context.Context, id string, requester auth.Identity) (*Entry, error) {
	e, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwner(requester, e.Email); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status OrderStatus, requester auth.Identity) (*Entry, error) {
	if _, err := s.Owned(ctx, id, requester); err != nil {
		return nil, err
	}
	e, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if status == Cancelled {
		events.Emit(ctx, s.pub, s.log, events.CartCancelled, e)
	}
	return e, nil
}

// Cancel marks the entry cancelled. Only the owner may cancel.
func (s *Service) Cancel(ctx context.Context, id string, requester auth.Identity) (*Entry, error) {
	return s.SetStatus(ctx, id, Cancelled, requester)
}

func (s *Service) Remove(ctx context.Context, id string, requester auth.Identity) error {
	e, err := s.Owned(ctx, id, requester)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.pub, s.log, events.CartRemoved, e)
	return nil
}
