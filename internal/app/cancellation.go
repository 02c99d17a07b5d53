package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"travel_companion/internal/domain"
)

// Cancel marks the booking cancelled and gives its nights back to the ledger.
// Ownership is checked by the caller. A booking without a stay (car rentals)
// only changes status.
func (s *BookingService) Cancel(ctx context.Context, bookingID int64) (bool, error) {
	var out domain.Booking
	var released int
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		var hotel *domain.Hotel
		if _, ok := b.Stay(); ok {
			h, err := tx.LockHotel(ctx, *b.HotelID)
			if err != nil {
				return fmt.Errorf("lock hotel: %w", err)
			}
			hotel = &h
			// re-read under the lock; a concurrent cancel may have won
			if b, err = tx.GetBooking(ctx, bookingID); err != nil {
				return err
			}
		}
		if err := cancellable(b); err != nil {
			return err
		}

		if err := tx.SetBookingStatus(ctx, b.ID, domain.StatusCancelled); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		b.Status = domain.StatusCancelled

		if hotel != nil {
			if released, err = tx.ReleaseNights(ctx, hotel.ID, b.ID); err != nil {
				return fmt.Errorf("release nights: %w", err)
			}
			if _, err := refreshAvailability(ctx, tx, *hotel, s.now()); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	if err != nil {
		if isNotFound(err) || errors.Is(err, domain.ErrAlreadyCancelled) || errors.Is(err, domain.ErrBookingCompleted) {
			return false, err
		}
		log.Error().Err(err).Int64("booking_id", bookingID).Msg("cancellation failed")
		return false, fmt.Errorf("%w: booking %d: %w", domain.ErrCancellationFailed, bookingID, err)
	}

	log.Info().Int64("booking_id", out.ID).Int("released_nights", released).Msg("booking cancelled")
	if out.HotelID != nil {
		s.evictHotel(ctx, *out.HotelID)
	}
	s.publish(ctx, "booking.cancelled", out)
	return true, nil
}

func cancellable(b domain.Booking) error {
	switch b.Status {
	case domain.StatusCancelled:
		return domain.ErrAlreadyCancelled
	case domain.StatusCompleted:
		return domain.ErrBookingCompleted
	}
	return nil
}
