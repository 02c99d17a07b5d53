package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"travel_companion/internal/domain"
)

type BookRequest struct {
	HotelID int64
	UserID  int64
	Stay    domain.Stay
	// Recommendation materializes the hotel when it is not stored yet.
	Recommendation *domain.Recommendation
}

// Book reserves one room of the hotel for the stay. The whole sequence runs in
// one transaction holding the hotel lock; any refusal or failure leaves no
// booking and no ledger row behind.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (domain.Booking, error) {
	if !req.Stay.CheckIn.Before(req.Stay.CheckOut) {
		return domain.Booking{}, fmt.Errorf("%w: check-out must be after check-in", domain.ErrInvalidStay)
	}

	var out domain.Booking
	var avail int
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		h, err := s.lockHotel(ctx, tx, req)
		if err != nil {
			return err
		}

		ok, err := hasCapacity(ctx, tx, h, req.Stay)
		if err != nil {
			return fmt.Errorf("availability query: %w", err)
		}
		if !ok {
			return domain.ErrNoAvailability
		}

		now := s.now()
		checkIn, checkOut := req.Stay.CheckIn, req.Stay.CheckOut
		b := domain.Booking{
			UserID:    req.UserID,
			Type:      domain.BookingHotel,
			HotelID:   &h.ID,
			CheckIn:   &checkIn,
			CheckOut:  &checkOut,
			Status:    domain.StatusConfirmed,
			CreatedAt: now,
		}
		if err := tx.CreateBooking(ctx, &b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		rows, err := tx.LedgerRange(ctx, h.ID, checkIn, checkOut)
		if err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		nights := domain.IndexNights(rows)

		room, ok := firstFitRoom(nights, h.TotalRooms, req.Stay)
		if !ok {
			return domain.ErrNoRoomAvailable
		}
		if err := claimRoom(ctx, tx, nights, h.ID, room, b.ID, req.Stay); err != nil {
			return err
		}
		if err := tx.SetBookingRoom(ctx, b.ID, room); err != nil {
			return fmt.Errorf("set booking room: %w", err)
		}
		b.RoomNumber = &room

		if avail, err = refreshAvailability(ctx, tx, h, now); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		lvl, msg := zerolog.ErrorLevel, "booking failed"
		if domain.Declined(err) {
			lvl, msg = zerolog.InfoLevel, "booking declined"
		}
		log.WithLevel(lvl).Err(err).Int64("hotel_id", req.HotelID).Int64("user_id", req.UserID).
			Str("stay", req.Stay.String()).Msg(msg)
		return domain.Booking{}, err
	}

	log.Info().Int64("booking_id", out.ID).Int64("hotel_id", req.HotelID).Int("room", *out.RoomNumber).
		Int("nights", req.Stay.NightCount()).Int("available_rooms", avail).Msg("booking confirmed")
	s.evictHotel(ctx, req.HotelID)
	s.publish(ctx, "booking.confirmed", out)
	return out, nil
}

// lockHotel takes the hotel lock. A matching recommendation is inserted first
// (a no-op when the hotel exists) so concurrent first bookings queue on the
// row instead of each locking an empty gap.
func (s *BookingService) lockHotel(ctx context.Context, tx domain.Tx, req BookRequest) (domain.Hotel, error) {
	rec := req.Recommendation
	if rec != nil && rec.ID == req.HotelID {
		if err := tx.CreateHotel(ctx, rec.Hotel(s.totalRooms, s.now())); err != nil {
			return domain.Hotel{}, fmt.Errorf("materialize hotel %d: %w", rec.ID, err)
		}
		log.Debug().Int64("hotel_id", rec.ID).Str("name", rec.Name).Msg("hotel ensured from recommendation")
	}
	h, err := tx.LockHotel(ctx, req.HotelID)
	if isNotFound(err) {
		return domain.Hotel{}, fmt.Errorf("hotel %d: %w", req.HotelID, domain.ErrNotFound)
	}
	return h, err
}

// firstFitRoom returns the lowest room number free on every night of stay.
func firstFitRoom(nights domain.Nights, totalRooms int, stay domain.Stay) (int, bool) {
	for room := 1; room <= totalRooms; room++ {
		if conflicts(nights, room, stay) == 0 {
			return room, true
		}
	}
	return 0, false
}

func conflicts(nights domain.Nights, room int, stay domain.Stay) int {
	n := 0
	for _, night := range stay.Nights() {
		if !nights.Available(night, room) {
			n++
		}
	}
	return n
}

// claimRoom writes one unavailable row per night: existing available rows are
// flipped, missing rows are inserted.
func claimRoom(ctx context.Context, tx domain.Tx, nights domain.Nights, hotelID int64, room int, bookingID int64, stay domain.Stay) error {
	for _, night := range stay.Nights() {
		row, exists := nights.Row(night, room)
		var err error
		switch {
		case exists && !row.IsAvailable:
			err = domain.ErrRoomConflict
		case exists:
			err = tx.ClaimNight(ctx, hotelID, night, room, bookingID)
		default:
			bid := bookingID
			err = tx.InsertNight(ctx, domain.RoomAvailability{
				HotelID:     hotelID,
				Date:        night,
				RoomNumber:  room,
				IsAvailable: false,
				BookingID:   &bid,
			})
		}
		if err != nil {
			return fmt.Errorf("room %d on %s: %w", room, night.Format(domain.DateLayout), err)
		}
	}
	return nil
}
