package mysql

import (
	"context"
	"fmt"
	"time"

	"travel_companion/internal/domain"
)

// txRepo is the ledger writer handed to WithinTx callbacks.
type txRepo struct{ reader }

// LockHotel reads the hotel row with FOR UPDATE so concurrent bookings of the
// same hotel queue behind each other until commit.
func (t *txRepo) LockHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return t.getHotel(ctx, lockHotelSQL, id)
}

func (t *txRepo) CreateHotel(ctx context.Context, h domain.Hotel) error {
	_, err := t.q.ExecContext(ctx, createHotelSQL, hotelArgs(h)...)
	return err
}

func (t *txRepo) SaveHotelAvailability(ctx context.Context, hotelID int64, available int, at time.Time) error {
	res, err := t.q.ExecContext(ctx, saveHotelAvailabilitySQL, available, at.UTC(), hotelID)
	if err != nil {
		return err
	}
	// Under clientFoundRows 0 means no such hotel. Without it MySQL also
	// reports 0 for unchanged values, so confirm before failing.
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := t.GetHotel(ctx, hotelID); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	res, err := t.q.ExecContext(ctx, insertBookingSQL,
		b.UserID,
		string(b.Type),
		valInt64(b.HotelID),
		valInt64(b.CarRentalID),
		valDay(b.CheckIn),
		valDay(b.CheckOut),
		string(b.Status),
		b.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (t *txRepo) SetBookingRoom(ctx context.Context, bookingID int64, room int) error {
	return t.execOne(ctx, setBookingRoomSQL, room, bookingID)
}

func (t *txRepo) SetBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error {
	return t.execOne(ctx, setBookingStatusSQL, string(status), bookingID)
}

// execOne runs an UPDATE keyed by booking id; no match means the booking is gone.
func (t *txRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *txRepo) CreateCarRental(ctx context.Context, c *domain.CarRental) error {
	res, err := t.q.ExecContext(ctx, insertCarRentalSQL,
		c.Location,
		string(c.CarType),
		day(c.PickupDate),
		day(c.ReturnDate),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (t *txRepo) InsertNight(ctx context.Context, r domain.RoomAvailability) error {
	_, err := t.q.ExecContext(ctx, insertNightSQL, r.HotelID, day(r.Date), r.RoomNumber, valInt64(r.BookingID))
	if isDuplicate(err) {
		return fmt.Errorf("insert night %s room %d: %w", day(r.Date), r.RoomNumber, domain.ErrRoomConflict)
	}
	return err
}

func (t *txRepo) ClaimNight(ctx context.Context, hotelID int64, date time.Time, room int, bookingID int64) error {
	res, err := t.q.ExecContext(ctx, claimNightSQL, bookingID, hotelID, day(date), room)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("claim night %s room %d: %w", day(date), room, domain.ErrRoomConflict)
	}
	return nil
}

func (t *txRepo) ReleaseNights(ctx context.Context, hotelID, bookingID int64) (int, error) {
	res, err := t.q.ExecContext(ctx, releaseNightsSQL, hotelID, bookingID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (t *txRepo) CountBookedRooms(ctx context.Context, hotelID int64) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx, countBookedRoomsSQL, hotelID).Scan(&n)
	return n, err
}

var _ domain.Tx = (*txRepo)(nil)
