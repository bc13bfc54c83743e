package booking

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

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Booking{})
}

func (s *Store) Create(ctx context.Context, bookings ...*Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(bookings).Error; err != nil {
		return apperror.Upstreamf(err, "insert bookings")
	}
	return nil
}

func (s *Store) ListForOwner(ctx context.Context, email string) ([]Booking, error) {
	var out []Booking
	err := s.db.WithContext(ctx).Where("email = ?", email).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, apperror.Upstreamf(err, "list bookings for %s", email)
	}
	return out, nil
}

func (s *Store) ListAll(ctx context.Context) ([]Booking, error) {
	var out []Booking
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, apperror.Upstreamf(err, "list bookings")
	}
	return out, nil
}

func (s *Store) ByPayment(ctx context.Context, paymentID string) ([]Booking, error) {
	var out []Booking
	err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, apperror.Upstreamf(err, "list bookings for payment %s", paymentID)
	}
	return out, nil
}

func (s *Store) ByID(ctx context.Context, id string) (*Booking, error) {
	var b Booking
	err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf("booking %s not found", id)
	}
	if err != nil {
		return nil, apperror.Upstreamf(err, "find booking %s", id)
	}
	return &b, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Booking{}).Count(&n).Error; err != nil {
		return 0, apperror.Upstreamf(err, "count bookings")
	}
	return n, nil
}

// CountActiveForRoom counts confirmed bookings that reference roomID.
func (s *Store) CountActiveForRoom(ctx context.Context, roomID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Booking{}).
		Where("room_id = ? AND status = ?", roomID, Confirmed).
		Count(&n).Error
	if err != nil {
		return 0, apperror.Upstreamf(err, "count bookings for room %s", roomID)
	}
	return n, nil
}

// MarkCancelled flips a confirmed booking to cancelled and reports whether
// this call did it.
func (s *Store) MarkCancelled(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, Confirmed).
		Update("status", Cancelled)
	if res.Error != nil {
		return false, apperror.Upstreamf(res.Error, "cancel booking %s", id)
	}
	return res.RowsAffected > 0, nil
}
