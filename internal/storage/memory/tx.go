package memory

import (
	"context"
	"fmt"
	"time"

	"travel_companion/internal/domain"
)

type tx struct{ st *state }

func key(hotelID int64, date time.Time, room int) nightKey {
	return nightKey{hotelID: hotelID, date: domain.Day(date), room: room}
}

func (t *tx) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return t.st.getHotel(id)
}

func (t *tx) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return t.st.getBooking(id)
}

func (t *tx) LedgerRange(ctx context.Context, hotelID int64, from, to time.Time) ([]domain.RoomAvailability, error) {
	return t.st.ledgerRange(hotelID, from, to), nil
}

// LockHotel is a plain read: the store mutex already serializes transactions.
func (t *tx) LockHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return t.st.getHotel(id)
}

func (t *tx) CreateHotel(ctx context.Context, h domain.Hotel) error {
	if _, ok := t.st.hotels[h.ID]; !ok {
		t.st.hotels[h.ID] = h
	}
	return nil
}

func (t *tx) SaveHotelAvailability(ctx context.Context, hotelID int64, available int, at time.Time) error {
	h, ok := t.st.hotels[hotelID]
	if !ok {
		return domain.ErrNotFound
	}
	h.AvailableRooms = available
	h.LastUpdated = at
	t.st.hotels[hotelID] = h
	return nil
}

func (t *tx) CreateBooking(ctx context.Context, b *domain.Booking) error {
	t.st.lastBookingID++
	b.ID = t.st.lastBookingID
	t.st.bookings[b.ID] = *b
	return nil
}

func (t *tx) SetBookingRoom(ctx context.Context, bookingID int64, room int) error {
	b, ok := t.st.bookings[bookingID]
	if !ok {
		return domain.ErrNotFound
	}
	b.RoomNumber = &room
	t.st.bookings[bookingID] = b
	return nil
}

func (t *tx) SetBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus) error {
	b, ok := t.st.bookings[bookingID]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	t.st.bookings[bookingID] = b
	return nil
}

func (t *tx) CreateCarRental(ctx context.Context, c *domain.CarRental) error {
	t.st.lastCarID++
	c.ID = t.st.lastCarID
	t.st.cars[c.ID] = *c
	return nil
}

func (t *tx) InsertNight(ctx context.Context, r domain.RoomAvailability) error {
	k := key(r.HotelID, r.Date, r.RoomNumber)
	if _, ok := t.st.nights[k]; ok {
		return fmt.Errorf("insert night: %w", domain.ErrRoomConflict)
	}
	r.Date = k.date
	t.st.nights[k] = r
	return nil
}

func (t *tx) ClaimNight(ctx context.Context, hotelID int64, date time.Time, room int, bookingID int64) error {
	k := key(hotelID, date, room)
	r, ok := t.st.nights[k]
	if !ok || !r.IsAvailable {
		return fmt.Errorf("claim night: %w", domain.ErrRoomConflict)
	}
	r.IsAvailable = false
	r.BookingID = &bookingID
	t.st.nights[k] = r
	return nil
}

func (t *tx) ReleaseNights(ctx context.Context, hotelID, bookingID int64) (int, error) {
	n := 0
	for k, r := range t.st.nights {
		if k.hotelID != hotelID || r.BookingID == nil || *r.BookingID != bookingID {
			continue
		}
		r.IsAvailable = true
		r.BookingID = nil
		t.st.nights[k] = r
		n++
	}
	return n, nil
}

func (t *tx) CountBookedRooms(ctx context.Context, hotelID int64) (int, error) {
	rooms := map[int]struct{}{}
	for k, r := range t.st.nights {
		if k.hotelID == hotelID && !r.IsAvailable {
			rooms[k.room] = struct{}{}
		}
	}
	return len(rooms), nil
}

var (
	_ domain.BookingStore = (*Store)(nil)
	_ domain.Tx           = (*tx)(nil)
)
