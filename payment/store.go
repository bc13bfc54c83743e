package payment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/thebrando/brando/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the append-only payment ledger plus its settlement marks.
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
	return s.db.AutoMigrate(&Payment{}, &Settlement{})
}

// Append inserts p unless a payment with its id exists and reports whether
// it was inserted.
func (s *Store) Append(ctx context.Context, p *Payment) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		return false, apperror.Upstreamf(res.Error, "append payment")
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ByID(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf("payment %s not found", id)
	}
	if err != nil {
		return nil, apperror.Upstreamf(err, "find payment %s", id)
	}
	return &p, nil
}

func (s *Store) ListForOwner(ctx context.Context, email string) ([]Payment, error) {
	var out []Payment
	err := s.db.WithContext(ctx).Where("email = ?", email).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, apperror.Upstreamf(err, "list payments for %s", email)
	}
	return out, nil
}

// All returns the whole ledger in insertion order.
func (s *Store) All(ctx context.Context) ([]Payment, error) {
	var out []Payment
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, apperror.Upstreamf(err, "list payments")
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Payment{}).Count(&n).Error; err != nil {
		return 0, apperror.Upstreamf(err, "count payments")
	}
	return n, nil
}

// Unsettled lists payments with no settlement row.
func (s *Store) Unsettled(ctx context.Context) ([]Payment, error) {
	var out []Payment
	err := s.db.WithContext(ctx).
		Where("id NOT IN (?)", s.db.Model(&Settlement{}).Select("payment_id")).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperror.Upstreamf(err, "list unsettled payments")
	}
	return out, nil
}

// Partition reads the ledger and the settlement marks in one transaction
// and splits the payments by whether they settled.
func (s *Store) Partition(ctx context.Context) (settled, unsettled []Payment, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var all []Payment
		if err := tx.Order("created_at ASC").Find(&all).Error; err != nil {
			return err
		}
		var ids []string
		if err := tx.Model(&Settlement{}).Pluck("payment_id", &ids).Error; err != nil {
			return err
		}
		done := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			done[id] = struct{}{}
		}
		for _, p := range all {
			if _, ok := done[p.ID]; ok {
				settled = append(settled, p)
			} else {
				unsettled = append(unsettled, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, apperror.Upstreamf(err, "partition ledger")
	}
	return settled, unsettled, nil
}

// MarkSettled records the settlement and reports false when paymentID was
// already settled. Run it in the same transaction as the inventory changes.
func (s *Store) MarkSettled(ctx context.Context, paymentID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Settlement{PaymentID: paymentID, SettledAt: at})
	if res.Error != nil {
		return false, apperror.Upstreamf(res.Error, "settle payment %s", paymentID)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) Settlement(ctx context.Context, paymentID string) (*Settlement, error) {
	var st Settlement
	err := s.db.WithContext(ctx).First(&st, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Upstreamf(err, "find settlement %s", paymentID)
	}
	return &st, nil
}
