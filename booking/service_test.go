package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
	"github.com/thebrando/brando/cache"
	"github.com/thebrando/brando/cart"
	"github.com/thebrando/brando/room"
	"github.com/thebrando/brando/storage/storagetest"
)

var (
	alice = auth.Identity{Email: "alice@example.com"}
	bob   = auth.Identity{Email: "bob@example.com"}
)

func newService(t *testing.T) *Service {
	t.Helper()
	db := storagetest.Open(t, &room.Room{}, &cart.Entry{}, &Booking{})
	log := logrus.NewEntry(logrus.New())
	rooms := room.NewService(room.NewStore(db), cache.NewMemory(), 0, nil, log)
	return NewService(db, NewStore(db), rooms, cart.NewStore(db), nil, log)
}

func addRoom(t *testing.T, s *Service) *room.Room {
	t.Helper()
	r := &room.Room{Title: "Harbour", Price: 90}
	require.NoError(t, s.rooms.Create(context.Background(), r))
	return r
}

func TestBookReservesRoom(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	r := addRoom(t, s)

	// Warm the cache so the test sees invalidation.
	_, err := s.rooms.GetByID(ctx, r.ID)
	require.NoError(t, err)

	in := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
	out := in.Add(48 * time.Hour)
	b, err := s.Book(ctx, alice.Email, Request{RoomID: r.ID, CheckIn: &in, CheckOut: &out})
	require.NoError(t, err)
	assert.Equal(t, Confirmed, b.Status)

	got, err := s.rooms.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Booking, got.Status)

	_, err = s.Book(ctx, bob.Email, Request{RoomID: r.ID})
	assert.True(t, apperror.Is(err, apperror.Conflict))

	n, err := s.Store().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestBookCancelsPendingCartEntries(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	r := addRoom(t, s)
	e := &cart.Entry{Email: bob.Email, RoomID: r.ID, Title: r.Title, Price: r.Price}
	require.NoError(t, s.carts.Add(ctx, e))

	_, err := s.Book(ctx, alice.Email, Request{RoomID: r.ID})
	require.NoError(t, err)

	got, err := s.carts.ByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.Cancelled, got.OrderStatus)
}

func TestBookValidates(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	_, err := s.Book(ctx, alice.Email, Request{})
	assert.True(t, apperror.Is(err, apperror.Invalid))

	_, err = s.Book(ctx, alice.Email, Request{RoomID: "missing"})
	assert.True(t, apperror.Is(err, apperror.NotFound))

	in := time.Now()
	out := in.Add(-time.Hour)
	_, err = s.Book(ctx, alice.Email, Request{RoomID: addRoom(t, s).ID, CheckIn: &in, CheckOut: &out})
	assert.True(t, apperror.Is(err, apperror.Invalid))
}

func TestConcurrentBookOneWins(t *testing.T) {
	s := newService(t)
	r := addRoom(t, s)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Book(context.Background(), alice.Email, Request{RoomID: r.ID})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)

	n, err := s.Store().CountActiveForRoom(context.Background(), r.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCancelReleasesRoom(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	r := addRoom(t, s)
	b, err := s.Book(ctx, alice.Email, Request{RoomID: r.ID})
	require.NoError(t, err)

	_, err = s.Cancel(ctx, b.ID, bob)
	assert.True(t, apperror.Is(err, apperror.AccessDenied))
	got, err := s.rooms.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Booking, got.Status)

	cancelled, err := s.Cancel(ctx, b.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, cancelled.Status)

	got, err = s.rooms.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Available, got.Status)

	again, err := s.Cancel(ctx, b.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, again.Status)

	_, err = s.Cancel(ctx, "missing", alice)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestCancelKeepsRoomHeldByOtherBooking(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	r := addRoom(t, s)
	first, err := s.Book(ctx, alice.Email, Request{RoomID: r.ID})
	require.NoError(t, err)

	// A second confirmed booking on the same room, as a retried settlement
	// or an admin import could leave behind.
	second := &Booking{Email: bob.Email, RoomID: r.ID}
	require.NoError(t, s.Store().Create(ctx, second))

	_, err = s.Cancel(ctx, first.ID, alice)
	require.NoError(t, err)

	got, err := s.rooms.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Booking, got.Status)
}

func TestListAndGet(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	b, err := s.Book(ctx, alice.Email, Request{RoomID: addRoom(t, s).ID})
	require.NoError(t, err)
	_, err = s.Book(ctx, bob.Email, Request{RoomID: addRoom(t, s).ID})
	require.NoError(t, err)

	mine, err := s.ListForOwner(ctx, alice.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.Get(ctx, b.ID, bob)
	assert.True(t, apperror.Is(err, apperror.AccessDenied))
}
