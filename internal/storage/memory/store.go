// Package memory is an in-process BookingStore. Transactions are serialized by
// one mutex and run against a private copy of the state that replaces the
// live state only on success.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"travel_companion/internal/domain"
)

type nightKey struct {
	hotelID int64
	date    time.Time
	room    int
}

type miss struct {
	status int
	reason string
	seenAt time.Time
}

type state struct {
	hotels   map[int64]domain.Hotel
	bookings map[int64]domain.Booking
	cars     map[int64]domain.CarRental
	nights   map[nightKey]domain.RoomAvailability
	misses   map[int64]miss

	lastBookingID int64
	lastCarID     int64
}

func newState() *state {
	return &state{
		hotels:   map[int64]domain.Hotel{},
		bookings: map[int64]domain.Booking{},
		cars:     map[int64]domain.CarRental{},
		nights:   map[nightKey]domain.RoomAvailability{},
		misses:   map[int64]miss{},
	}
}

// clone copies the maps. Entity pointer fields are shared; they are never
// written through, only replaced.
func (st *state) clone() *state {
	c := &state{
		hotels:        make(map[int64]domain.Hotel, len(st.hotels)),
		bookings:      make(map[int64]domain.Booking, len(st.bookings)),
		cars:          make(map[int64]domain.CarRental, len(st.cars)),
		nights:        make(map[nightKey]domain.RoomAvailability, len(st.nights)),
		misses:        make(map[int64]miss, len(st.misses)),
		lastBookingID: st.lastBookingID,
		lastCarID:     st.lastCarID,
	}
	for k, v := range st.hotels {
		c.hotels[k] = v
	}
	for k, v := range st.bookings {
		c.bookings[k] = v
	}
	for k, v := range st.cars {
		c.cars[k] = v
	}
	for k, v := range st.nights {
		c.nights[k] = v
	}
	for k, v := range st.misses {
		c.misses[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store { return &Store{st: newState()} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// read returns the committed state. Committed states are never mutated, so
// callers may use the snapshot without holding the lock.
func (s *Store) read() *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// mutate applies fn to a copy of the state and commits it.
func (s *Store) mutate(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	fn(work)
	s.st = work
}

func (s *Store) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return s.read().getHotel(id)
}

func (s *Store) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	return s.read().getBooking(id)
}

func (s *Store) LedgerRange(ctx context.Context, hotelID int64, from, to time.Time) ([]domain.RoomAvailability, error) {
	return s.read().ledgerRange(hotelID, from, to), nil
}

func (s *Store) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	st := s.read()
	var out []domain.Hotel
	for _, h := range st.hotels {
		if q.Location != nil && !strings.Contains(strings.ToLower(h.Location), strings.ToLower(*q.Location)) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	st := s.read()
	var out []domain.Booking
	for _, b := range st.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	s.mutate(func(st *state) {
		if cur, ok := st.hotels[h.ID]; ok {
			h.TotalRooms = cur.TotalRooms
			h.AvailableRooms = cur.AvailableRooms
		}
		st.hotels[h.ID] = h
	})
	return nil
}

func (s *Store) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	s.mutate(func(st *state) {
		st.misses[id] = miss{status: status, reason: reason, seenAt: time.Now().UTC()}
	})
	return nil
}

// Misses reports the recorded ingestion misses by hotel id.
func (s *Store) Misses() map[int64]int {
	st := s.read()
	out := make(map[int64]int, len(st.misses))
	for id, m := range st.misses {
		out[id] = m.status
	}
	return out
}

func (st *state) getHotel(id int64) (domain.Hotel, error) {
	h, ok := st.hotels[id]
	if !ok {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, nil
}

func (st *state) getBooking(id int64) (domain.Booking, error) {
	b, ok := st.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (st *state) ledgerRange(hotelID int64, from, to time.Time) []domain.RoomAvailability {
	from, to = domain.Day(from), domain.Day(to)
	var out []domain.RoomAvailability
	for k, r := range st.nights {
		if k.hotelID != hotelID || k.date.Before(from) || !k.date.Before(to) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].RoomNumber < out[j].RoomNumber
	})
	return out
}
