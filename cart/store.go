package cart

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
	return s.db.AutoMigrate(&Entry{})
}

func (s *Store) Add(ctx context.Context, e *Entry) error {
	if e.Email == "" || e.RoomID == "" {
		return apperror.Invalidf("email and roomId are required")
	}
	e.OrderStatus = Pending
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return apperror.Upstreamf(err, "add cart entry")
	}
	return nil
}

// ListForOwner returns the owner's entries that have not been cancelled.
func (s *Store) ListForOwner(ctx context.Context, email string) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("email = ? AND order_status <> ?", email, Cancelled).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperror.Upstreamf(err, "list cart for %s", email)
	}
	return entries, nil
}

func (s *Store) ListAll(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, apperror.Upstreamf(err, "list carts")
	}
	return entries, nil
}

func (s *Store) ByID(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFoundf("cart entry %s not found", id)
	}
	if err != nil {
		return nil, apperror.Upstreamf(err, "find cart entry %s", id)
	}
	return &e, nil
}

// SetStatus moves an entry along Pending -> Cancelled. Repeating the current
// status is a no-op; leaving Cancelled is a Conflict.
func (s *Store) SetStatus(ctx context.Context, id string, status OrderStatus) (*Entry, error) {
	if !status.Valid() {
		return nil, apperror.Invalidf("unknown order status %q", status)
	}
	e, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OrderStatus == status {
		return e, nil
	}
	if e.OrderStatus == Cancelled {
		return nil, apperror.Conflictf("cart entry %s is cancelled", id)
	}

	res := s.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND order_status = ?", id, e.OrderStatus).
		Update("order_status", status)
	if res.Error != nil {
		return nil, apperror.Upstreamf(res.Error, "update cart entry %s", id)
	}
	if res.RowsAffected == 0 {
		// Consumed or cancelled concurrently.
		return s.SetStatus(ctx, id, status)
	}
	e.OrderStatus = status
	return e, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Entry{}, "id = ?", id)
	if res.Error != nil {
		return apperror.Upstreamf(res.Error, "remove cart entry %s", id)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFoundf("cart entry %s not found", id)
	}
	return nil
}

// Consume deletes the pending entries in ids that belong to email. Every id
// must match or the call fails with Conflict; run it inside a transaction.
func (s *Store) Consume(ctx context.Context, ids []string, email string) error {
	ids = unique(ids)
	if len(ids) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).
		Where("id IN ? AND email = ? AND order_status = ?", ids, email, Pending).
		Delete(&Entry{})
	if res.Error != nil {
		return apperror.Upstreamf(res.Error, "consume cart entries")
	}
	if res.RowsAffected != int64(len(ids)) {
		return apperror.Conflictf("%d of %d cart entries are no longer pending", int64(len(ids))-res.RowsAffected, len(ids))
	}
	return nil
}

// CancelPendingForRooms cancels every pending entry that points at one of
// roomIDs. Called in the same transaction that takes the rooms.
func (s *Store) CancelPendingForRooms(ctx context.Context, roomIDs []string) (int64, error) {
	roomIDs = unique(roomIDs)
	if len(roomIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&Entry{}).
		Where("room_id IN ? AND order_status = ?", roomIDs, Pending).
		Update("order_status", Cancelled)
	if res.Error != nil {
		return 0, apperror.Upstreamf(res.Error, "cancel stale cart entries")
	}
	return res.RowsAffected, nil
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
