package app

import (
	"context"
	"errors"
	"fmt"

	"travel_companion/internal/domain"
)

// IngestionService seeds hotels from the catalog content API.
type IngestionService struct {
	catalog    domain.CatalogClient
	store      domain.BookingStore
	cache      domain.Cache
	totalRooms int
}

func NewIngestionService(c domain.CatalogClient, s domain.BookingStore, cache domain.Cache, defaultTotalRooms int) *IngestionService {
	if defaultTotalRooms <= 0 {
		defaultTotalRooms = domain.DefaultTotalRooms
	}
	return &IngestionService{catalog: c, store: s, cache: cache, totalRooms: defaultTotalRooms}
}

func (s *IngestionService) SeedHotel(ctx context.Context, id int64) error {
	p, err := s.catalog.GetHotel(ctx, id)
	if err != nil {
		// 404: gone upstream -> record miss, drop any cached copy, stop gracefully.
		if errors.Is(err, domain.ErrNotFound) {
			_ = s.store.LogMiss(ctx, id, 404, "not found")
			s.evict(ctx, id)
			return nil
		}
		// 401/403: inactive or not licensed for us.
		if errors.Is(err, domain.ErrForbidden) {
			_ = s.store.LogMiss(ctx, id, 403, "inactive")
			s.evict(ctx, id)
			return nil
		}
		return err
	}

	h, ok := mapHotel(id, p, s.totalRooms)
	if !ok {
		_ = s.store.LogMiss(ctx, id, 422, "unmappable payload")
		return nil
	}
	if err := s.store.UpsertHotel(ctx, h); err != nil {
		return fmt.Errorf("upsert hotel %d: %w", id, err)
	}
	s.evict(ctx, id)
	return nil
}

func (s *IngestionService) evict(ctx context.Context, id int64) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, hotelCacheKey(id))
	}
}
