package admin

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/auth"
	"github.com/thebrando/brando/booking"
	"github.com/thebrando/brando/cache"
	"github.com/thebrando/brando/cart"
	"github.com/thebrando/brando/payment"
	"github.com/thebrando/brando/room"
	"github.com/thebrando/brando/storage/storagetest"
	"github.com/thebrando/brando/user"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	svc      *Service
	users    *user.Store
	rooms    *room.Service
	bookings *booking.Service
	ledger   *payment.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storagetest.Open(t, &user.User{}, &room.Room{}, &cart.Entry{}, &booking.Booking{}, &payment.Payment{}, &payment.Settlement{})
	log := logrus.NewEntry(logrus.New())
	users := user.NewStore(db)
	rooms := room.NewService(room.NewStore(db), cache.NewMemory(), 0, nil, log)
	carts := cart.NewStore(db)
	bookings := booking.NewStore(db)
	ledger := payment.NewStore(db)
	coord := payment.NewCoordinator(payment.Deps{DB: db, Ledger: ledger, Rooms: rooms, Carts: carts, Bookings: bookings, Log: log})
	return &fixture{
		svc:      NewService(db, users, rooms, carts, bookings, coord),
		users:    users,
		rooms:    rooms,
		bookings: booking.NewService(db, bookings, rooms, carts, nil, log),
		ledger:   ledger,
	}
}

func TestFoldLedger(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }
	total, byDay := foldLedger([]payment.Payment{
		{Amount: 100, CreatedAt: day(2)},
		{Amount: 50.5, CreatedAt: day(1)},
		{Amount: 20, CreatedAt: day(2)},
	})

	assert.InDelta(t, 170.5, total, 1e-9)
	require.Len(t, byDay, 2)
	assert.Equal(t, DayRevenue{Day: "2024-03-01", Revenue: 50.5, Count: 1}, byDay[0])
	assert.Equal(t, DayRevenue{Day: "2024-03-02", Revenue: 120, Count: 2}, byDay[1])

	total, byDay = foldLedger(nil)
	assert.Zero(t, total)
	assert.Empty(t, byDay)
}

func TestStatsAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &user.User{Email: "a@example.com"}))
	r := &room.Room{Title: "Loft", Price: 80}
	require.NoError(t, f.rooms.Create(ctx, r))
	paid := &payment.Payment{Email: "a@example.com", Amount: 80, RoomIDs: []string{r.ID}}
	_, err := f.ledger.Append(ctx, paid)
	require.NoError(t, err)
	_, err = f.ledger.MarkSettled(ctx, paid.ID, time.Now())
	require.NoError(t, err)
	// lost the race for the room, still waiting for reconciliation
	_, err = f.ledger.Append(ctx, &payment.Payment{Email: "a@example.com", Amount: 40, RoomIDs: []string{r.ID}})
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Users)
	assert.EqualValues(t, 1, st.Rooms)
	assert.EqualValues(t, 0, st.Bookings)
	assert.EqualValues(t, 2, st.Payments)
	assert.InDelta(t, 80, st.Revenue, 1e-9)
	assert.EqualValues(t, 1, st.UnsettledPayments)
	assert.InDelta(t, 40, st.UnsettledRevenue, 1e-9)
	require.Len(t, st.ByDay, 1)
	assert.Equal(t, 1, st.ByDay[0].Count)

	b, err := f.svc.ExportXLSX(ctx)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer wb.Close()

	v, err := wb.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	v, err = wb.GetCellValue(summarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "40", v)
	v, err = wb.GetCellValue(revenueSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Day", v)
}

func TestSetRoomStatusKeepsBookedRoomsTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := &room.Room{Title: "Loft", Price: 80}
	require.NoError(t, f.rooms.Create(ctx, r))
	b, err := f.bookings.Book(ctx, "a@example.com", booking.Request{RoomID: r.ID})
	require.NoError(t, err)

	_, err = f.svc.SetRoomStatus(ctx, r.ID, room.Available)
	assert.True(t, apperror.Is(err, apperror.Conflict))

	got, err := f.svc.SetRoomStatus(ctx, r.ID, room.Unavailable)
	require.NoError(t, err)
	assert.Equal(t, room.Unavailable, got.Status)

	_, err = f.bookings.Cancel(ctx, b.ID, auth.Identity{Email: "a@example.com"})
	require.NoError(t, err)
	got, err = f.svc.SetRoomStatus(ctx, r.ID, room.Available)
	require.NoError(t, err)
	assert.Equal(t, room.Available, got.Status)

	_, err = f.svc.SetRoomStatus(ctx, "missing", room.Booking)
	assert.True(t, apperror.Is(err, apperror.NotFound))
	_, err = f.svc.SetRoomStatus(ctx, r.ID, "flooded")
	assert.True(t, apperror.Is(err, apperror.Invalid))
}
