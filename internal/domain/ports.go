package domain

import (
	"context"
	"time"
)

// LedgerReader is the read side shared by the store and its transactions.
type LedgerReader interface {
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	// LedgerRange returns the rows of hotelID with from <= date < to.
	LedgerRange(ctx context.Context, hotelID int64, from, to time.Time) ([]RoomAvailability, error)
}

type Tx interface {
	LedgerReader

	// LockHotel loads the hotel and holds it exclusively until the
	// transaction ends. Every ledger write for a hotel happens under it.
	LockHotel(ctx context.Context, id int64) (Hotel, error)
	CreateHotel(ctx context.Context, h Hotel) error
	SaveHotelAvailability(ctx context.Context, hotelID int64, available int, at time.Time) error

	CreateBooking(ctx context.Context, b *Booking) error
	SetBookingRoom(ctx context.Context, bookingID int64, room int) error
	SetBookingStatus(ctx context.Context, bookingID int64, status BookingStatus) error
	CreateCarRental(ctx context.Context, c *CarRental) error

	// InsertNight writes a new unavailable row. A row already present for the
	// same (hotel, date, room) yields ErrRoomConflict.
	InsertNight(ctx context.Context, r RoomAvailability) error
	// ClaimNight flips an existing available row to unavailable for bookingID.
	// It yields ErrRoomConflict when the row is not available anymore.
	ClaimNight(ctx context.Context, hotelID int64, date time.Time, room int, bookingID int64) error
	// ReleaseNights marks every row owned by bookingID available again and
	// detaches it. It returns the number of rows released.
	ReleaseNights(ctx context.Context, hotelID, bookingID int64) (int, error)
	// CountBookedRooms counts distinct rooms with at least one unavailable row.
	CountBookedRooms(ctx context.Context, hotelID int64) (int, error)
}

type BookingStore interface {
	LedgerReader

	ListHotels(ctx context.Context, q HotelsQuery) ([]Hotel, error)
	ListBookings(ctx context.Context, userID int64) ([]Booking, error)

	// UpsertHotel inserts a hotel or refreshes its descriptive fields. Room
	// counts of an existing hotel are left alone.
	UpsertHotel(ctx context.Context, h Hotel) error
	LogMiss(ctx context.Context, id int64, status int, reason string) error

	// WithinTx runs fn in one transaction; any error from fn rolls back every
	// write fn made.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

type CatalogClient interface {
	GetHotel(ctx context.Context, id int64) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev BookingEvent) error
}

type BookingEvent struct {
	ID         string        `json:"id"`
	Kind       string        `json:"kind"` // booking.confirmed|booking.cancelled
	BookingID  int64         `json:"booking_id"`
	UserID     int64         `json:"user_id"`
	Type       BookingType   `json:"booking_type"`
	Status     BookingStatus `json:"status"`
	HotelID    *int64        `json:"hotel_id,omitempty"`
	RoomNumber *int          `json:"room_number,omitempty"`
	CheckIn    string        `json:"check_in,omitempty"`
	CheckOut   string        `json:"check_out,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

type HotelsQuery struct {
	Location *string
	Limit    int
}
