package room

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thebrando/brando/apperror"
	"github.com/thebrando/brando/cache"
	"github.com/thebrando/brando/events"
)

const (
	countKey        = "rooms:count"
	DefaultPopular  = 5
	maxPopular      = 50
	defaultCacheTTL = 5 * time.Minute
	roomKeyPrefix   = "room:"
)

func roomKey(id string) string { return roomKeyPrefix + id }

// Service is the inventory API used by handlers and other components. Single
// room reads and the total count are cached; every mutation invalidates.
type Service struct {
	store *Store
	cache cache.Cache
	ttl   time.Duration
	pub   events.Publisher
	log   *logrus.Entry
}

func NewService(store *Store, c cache.Cache, ttl time.Duration, pub events.Publisher, log *logrus.Entry) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{store: store, cache: c, ttl: ttl, pub: pub, log: log}
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) GetAvailable(ctx context.Context, limit int) ([]Room, error) {
	if limit <= 0 {
		limit = DefaultPopular
	}
	if limit > maxPopular {
		limit = maxPopular
	}
	return s.store.Available(ctx, limit)
}

// GetPage returns page (1-based) of pageSize rooms.
func (s *Service) GetPage(ctx context.Context, page, pageSize int) ([]Room, error) {
	if page < 1 || pageSize < 1 {
		return nil, apperror.Invalidf("page and limit must be positive integers")
	}
	return s.store.Page(ctx, (page-1)*pageSize, pageSize)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Room, error) {
	var cached Room
	if ok, err := s.cache.Get(ctx, roomKey(id), &cached); err != nil {
		s.log.WithError(err).Warn("room cache read")
	} else if ok {
		return &cached, nil
	}

	r, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, roomKey(id), r, s.ttl); err != nil {
		s.log.WithError(err).Warn("room cache write")
	}
	return r, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	if ok, err := s.cache.Get(ctx, countKey, &n); err != nil {
		s.log.WithError(err).Warn("room count cache read")
	} else if ok {
		return n, nil
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, countKey, n, s.ttl); err != nil {
		s.log.WithError(err).Warn("room count cache write")
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, r *Room) error {
	if err := s.store.Create(ctx, r); err != nil {
		return err
	}
	s.invalidate(ctx, countKey)
	return nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status Status) error {
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		return err
	}
	s.Invalidate(ctx, id)
	events.Emit(ctx, s.pub, s.log, events.RoomStatusChanged, map[string]any{"room_id": id, "status": status})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, roomKey(id), countKey)
	events.Emit(ctx, s.pub, s.log, events.RoomDeleted, map[string]any{"room_id": id})
	return nil
}

// Invalidate drops cached copies of the given rooms. Components that change
// room status inside their own transactions call it after commit.
func (s *Service) Invalidate(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, roomKey(id))
	}
	s.invalidate(ctx, keys...)
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WithError(err).Warn("room cache invalidate")
	}
}
