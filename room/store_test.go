package room

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/storage/storagetest"
	"gorm.io/gorm"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storagetest.Open(t, &Room{}))
}

func seedRooms(t *testing.T, s *Store, n int) []Room {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Room, 0, n)
	for i := 0; i < n; i++ {
		r := Room{Title: fmt.Sprintf("Room %d", i), Price: float64(100 + i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.Create(ctx, &r))
		out = append(out, r)
	}
	return out
}

func TestCreateDefaultsStatus(t *testing.T) {
	s := newStore(t)
	r := Room{Title: "Deluxe", Price: 250}
	require.NoError(t, s.Create(context.Background(), &r))

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, Available, r.Status)

	err := s.Create(context.Background(), &Room{Price: 10})
	assert.True(t, apperror.Is(err, apperror.Invalid))
	err = s.Create(context.Background(), &Room{Title: "x", Status: "haunted"})
	assert.True(t, apperror.Is(err, apperror.Invalid))
}

func TestPageOffsets(t *testing.T) {
	s := newStore(t)
	rooms := seedRooms(t, s, 7)
	ctx := context.Background()

	for _, size := range []int{1, 2, 3, 10} {
		for page := 1; page <= 4; page++ {
			got, err := s.Page(ctx, (page-1)*size, size)
			require.NoError(t, err)

			start := (page - 1) * size
			end := start + size
			if start > len(rooms) {
				start = len(rooms)
			}
			if end > len(rooms) {
				end = len(rooms)
			}
			require.Len(t, got, end-start, "page %d size %d", page, size)
			for i, r := range got {
				assert.Equal(t, rooms[start+i].ID, r.ID)
			}
		}
	}
}

func TestSetStatusIdempotent(t *testing.T) {
	s := newStore(t)
	r := seedRooms(t, s, 1)[0]
	ctx := context.Background()

	require.NoError(t, s.SetStatus(ctx, r.ID, Unavailable))
	require.NoError(t, s.SetStatus(ctx, r.ID, Unavailable))

	got, err := s.ByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, Unavailable, got.Status)

	assert.True(t, apperror.Is(s.SetStatus(ctx, "nope", Booking), apperror.NotFound))
	assert.True(t, apperror.Is(s.SetStatus(ctx, r.ID, "gone"), apperror.Invalid))
}

func TestUnknownRoom(t *testing.T) {
	s := newStore(t)
	_, err := s.ByID(context.Background(), "missing")
	assert.True(t, apperror.Is(err, apperror.NotFound))
	assert.True(t, apperror.Is(s.Delete(context.Background(), "missing"), apperror.NotFound))
}

func TestAvailableSkipsTakenRooms(t *testing.T) {
	s := newStore(t)
	rooms := seedRooms(t, s, 4)
	ctx := context.Background()
	require.NoError(t, s.SetStatus(ctx, rooms[0].ID, Booking))

	got, err := s.Available(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rooms[1].ID, got[0].ID)
	assert.Equal(t, rooms[2].ID, got[1].ID)
}

func TestReserveIsAllOrNothing(t *testing.T) {
	s := newStore(t)
	rooms := seedRooms(t, s, 2)
	ctx := context.Background()

	require.NoError(t, s.Reserve(ctx, []string{rooms[0].ID, rooms[0].ID}))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.WithTx(tx).Reserve(ctx, []string{rooms[0].ID, rooms[1].ID})
	})
	assert.True(t, apperror.Is(err, apperror.Conflict))

	second, err := s.ByID(ctx, rooms[1].ID)
	require.NoError(t, err)
	assert.Equal(t, Available, second.Status)

	assert.True(t, apperror.Is(s.Reserve(ctx, nil), apperror.Invalid))
}

func TestRelease(t *testing.T) {
	s := newStore(t)
	rooms := seedRooms(t, s, 2)
	ctx := context.Background()
	require.NoError(t, s.SetStatus(ctx, rooms[0].ID, Booking))
	require.NoError(t, s.SetStatus(ctx, rooms[1].ID, Unavailable))

	ok, err := s.Release(ctx, rooms[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Release(ctx, rooms[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.ByID(ctx, rooms[1].ID)
	require.NoError(t, err)
	assert.Equal(t, Unavailable, got.Status)
}
