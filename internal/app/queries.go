package app

import (
	"context"
	"fmt"
	"time"

	"travel_companion/internal/domain"
)

type QueryService struct {
	store    domain.BookingStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(s domain.BookingStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl}
}

func hotelCacheKey(id int64) string { return fmt.Sprintf("hotel:%d", id) }

func (s *QueryService) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	key := hotelCacheKey(id)
	var h domain.Hotel
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &h); ok {
			return h, nil
		}
	}
	h, err := s.store.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	}
	return h, nil
}

// ListHotels is not cached: available_rooms changes with every booking.
func (s *QueryService) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	hs, err := s.store.ListHotels(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Hotel, len(hs))
	copy(out, hs)
	return out, nil
}
