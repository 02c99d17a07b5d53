package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"travel_companion/internal/domain"
)

type BookingService struct {
	store      domain.BookingStore
	cache      domain.Cache
	events     domain.EventPublisher
	totalRooms int
	now        func() time.Time
}

// NewBookingService wires the booking core. cache and events may be nil.
func NewBookingService(store domain.BookingStore, cache domain.Cache, events domain.EventPublisher, defaultTotalRooms int) *BookingService {
	if defaultTotalRooms <= 0 {
		defaultTotalRooms = domain.DefaultTotalRooms
	}
	return &BookingService{
		store:      store,
		cache:      cache,
		events:     events,
		totalRooms: defaultTotalRooms,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.store.ListBookings(ctx, userID)
}

type CarRentalRequest struct {
	UserID     int64
	Location   string
	CarType    domain.CarType
	PickupDate time.Time
	ReturnDate time.Time
}

func (s *BookingService) BookCar(ctx context.Context, req CarRentalRequest) (domain.Booking, error) {
	pickup, ret := domain.Day(req.PickupDate), domain.Day(req.ReturnDate)
	if ret.Before(pickup) {
		return domain.Booking{}, fmt.Errorf("%w: return date before pickup date", domain.ErrInvalidStay)
	}

	var out domain.Booking
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		car := domain.CarRental{
			Location:   req.Location,
			CarType:    req.CarType,
			PickupDate: pickup,
			ReturnDate: ret,
		}
		if err := tx.CreateCarRental(ctx, &car); err != nil {
			return fmt.Errorf("create car rental: %w", err)
		}
		b := domain.Booking{
			UserID:      req.UserID,
			Type:        domain.BookingCar,
			CarRentalID: &car.ID,
			Status:      domain.StatusConfirmed,
			CreatedAt:   s.now(),
		}
		if err := tx.CreateBooking(ctx, &b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	log.Info().Int64("booking_id", out.ID).Int64("user_id", out.UserID).Str("car_type", string(req.CarType)).Msg("car rental booked")
	s.publish(ctx, "booking.confirmed", out)
	return out, nil
}

// refreshAvailability recomputes the cached available_rooms aggregate from the
// ledger. It is the only writer of that column and always runs inside the
// transaction that changed the ledger.
func refreshAvailability(ctx context.Context, tx domain.Tx, h domain.Hotel, at time.Time) (int, error) {
	booked, err := tx.CountBookedRooms(ctx, h.ID)
	if err != nil {
		return 0, fmt.Errorf("count booked rooms: %w", err)
	}
	avail := domain.AvailableRooms(h.TotalRooms, booked)
	if err := tx.SaveHotelAvailability(ctx, h.ID, avail, at); err != nil {
		return 0, fmt.Errorf("save hotel availability: %w", err)
	}
	return avail, nil
}

func (s *BookingService) evictHotel(ctx context.Context, hotelID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, hotelCacheKey(hotelID)); err != nil {
		log.Warn().Err(err).Int64("hotel_id", hotelID).Msg("hotel cache evict failed")
	}
}

// PublishTimeout caps how long a committed booking waits on the event broker.
// It stays well below the HTTP request timeout.
var PublishTimeout = 3 * time.Second

// publish is best-effort: the booking is already committed.
func (s *BookingService) publish(ctx context.Context, kind string, b domain.Booking) {
	if s.events == nil {
		return
	}
	ev := domain.BookingEvent{
		Kind:       kind,
		BookingID:  b.ID,
		UserID:     b.UserID,
		Type:       b.Type,
		Status:     b.Status,
		HotelID:    b.HotelID,
		RoomNumber: b.RoomNumber,
		OccurredAt: s.now(),
	}
	if stay, ok := b.Stay(); ok {
		ev.CheckIn = stay.CheckIn.Format(domain.DateLayout)
		ev.CheckOut = stay.CheckOut.Format(domain.DateLayout)
	}
	// Detached from request cancellation, bounded so a stalled broker cannot
	// hold the response.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		log.Warn().Err(err).Int64("booking_id", b.ID).Str("kind", kind).Msg("publish booking event failed")
	}
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
