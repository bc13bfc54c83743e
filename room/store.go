package room

import (
	"context"

	"github.com/pkg/errors"
	"github.com/thebrando/brando/apperror"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Room{})
}

func (s *Store) ordered(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Room{}).Order("created_at ASC").Order("id ASC")
}

func (s *Store) Available(ctx context.Context, limit int) ([]Room, error) {
	var rooms []Room
	err := s.ordered(ctx).Where("status = ?", Available).Limit(limit).Find(&rooms).Error
	if err != nil {
		return nil, apperror.Upstreamf(err, "list available rooms")
	}
	return rooms, nil
}

// Page returns at most count rooms starting at offset, in stored order.
func (s *Store) Page(ctx context.Context, offset, count int) ([]Room, error) {
	var rooms []Room
	if err := s.ordered(ctx).Offset(offset).Limit(count).Find(&rooms).Error; err != nil {
		return nil, apperror.Upstreamf(err, "list rooms")
	}
	return rooms, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Room{}).Count(&n).Error; err != nil {
		return 0, apperror.Upstreamf(err, "count rooms")
	}
	return n, nil
}

func (s *Store) ByID(ctx context.Context, id string) (*Room, error) {
	var r Room
	err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf("room %s not found", id)
	}
	if err != nil {
		return nil, apperror.Upstreamf(err, "find room %s", id)
	}
	return &r, nil
}

func (s *Store) Create(ctx context.Context, r *Room) error {
	if r.Title == "" {
		return apperror.Invalidf("room title is required")
	}
	if r.Price < 0 {
		return apperror.Invalidf("room price must not be negative")
	}
	if r.Status != "" && !r.Status.Valid() {
		return apperror.Invalidf("unknown room status %q", r.Status)
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return apperror.Upstreamf(err, "create room")
	}
	return nil
}

// SetStatus is idempotent: setting the current status again succeeds.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return apperror.Invalidf("unknown room status %q", status)
	}
	res := s.db.WithContext(ctx).Model(&Room{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return apperror.Upstreamf(res.Error, "update room %s", id)
	}
	if res.RowsAffected == 0 {
		if _, err := s.ByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Room{}, "id = ?", id)
	if res.Error != nil {
		return apperror.Upstreamf(res.Error, "delete room %s", id)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFoundf("room %s not found", id)
	}
	return nil
}

// Reserve moves every room in ids from Available to Booking with a single
// conditional update. If any room was not Available it returns Conflict and
// the caller's transaction must be rolled back.
func (s *Store) Reserve(ctx context.Context, ids []string) error {
	ids = unique(ids)
	if len(ids) == 0 {
		return apperror.Invalidf("no rooms to reserve")
	}
	res := s.db.WithContext(ctx).Model(&Room{}).
		Where("id IN ? AND status = ?", ids, Available).
		Update("status", Booking)
	if res.Error != nil {
		return apperror.Upstreamf(res.Error, "reserve rooms")
	}
	if res.RowsAffected != int64(len(ids)) {
		return apperror.Conflictf("%d of %d rooms are no longer available", int64(len(ids))-res.RowsAffected, len(ids))
	}
	return nil
}

// Release moves a room from Booking back to Available. Rooms in any other
// state are left alone.
func (s *Store) Release(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Room{}).
		Where("id = ? AND status = ?", id, Booking).
		Update("status", Available)
	if res.Error != nil {
		return false, apperror.Upstreamf(res.Error, "release room %s", id)
	}
	return res.RowsAffected > 0, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
