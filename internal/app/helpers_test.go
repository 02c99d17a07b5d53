package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travel_companion/internal/domain"
	"travel_companion/internal/storage/memory"
)

// ---- fakes ----

type fakeCache struct {
	mu      sync.Mutex
	store   map[string]domain.Hotel
	gets    int
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	h, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*domain.Hotel) = h
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string]domain.Hotel{}
	}
	c.store[key] = v.(domain.Hotel)
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.deleted = append(c.deleted, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev domain.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

// stallingPublisher never hears back from its broker; it only returns once
// the context gives up.
type stallingPublisher struct{}

func (stallingPublisher) Publish(ctx context.Context, ev domain.BookingEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

var errBoom = errors.New("boom")

// faultyStore fails one named Tx step; the memory store then discards the
// whole transaction.
type faultyStore struct {
	*memory.Store
	failOn string
}

func (f *faultyStore) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return f.Store.WithinTx(ctx, func(tx domain.Tx) error {
		return fn(faultyTx{Tx: tx, failOn: f.failOn})
	})
}

type faultyTx struct {
	domain.Tx
	failOn string
}

func (t faultyTx) SetBookingRoom(ctx context.Context, id int64, room int) error {
	if t.failOn == "set_room" {
		return errBoom
	}
	return t.Tx.SetBookingRoom(ctx, id, room)
}

func (t faultyTx) SaveHotelAvailability(ctx context.Context, hotelID int64, available int, at time.Time) error {
	if t.failOn == "save_availability" {
		return errBoom
	}
	return t.Tx.SaveHotelAvailability(ctx, hotelID, available, at)
}

func (t faultyTx) ReleaseNights(ctx context.Context, hotelID, bookingID int64) (int, error) {
	if t.failOn == "release" {
		return 0, errBoom
	}
	return t.Tx.ReleaseNights(ctx, hotelID, bookingID)
}

// ---- helpers ----

func seedHotel(t *testing.T, s *memory.Store, id int64, rooms int) {
	t.Helper()
	if err := s.UpsertHotel(context.Background(), domain.Hotel{
		ID: id, Name: "Hotel", Location: "Lisbon, PT", TotalRooms: rooms, AvailableRooms: rooms,
		LastUpdated: time.Now().UTC(),
	}); err != nil {
		t.Fatal(err)
	}
}

func mustStay(t *testing.T, in, out string) domain.Stay {
	t.Helper()
	s, err := domain.ParseStay(in, out)
	if err != nil {
		t.Fatalf("ParseStay(%s, %s): %v", in, out, err)
	}
	return s
}

func ledger(t *testing.T, s domain.LedgerReader, hotelID int64, from, to string) domain.Nights {
	t.Helper()
	stay := mustStay(t, from, to)
	rows, err := s.LedgerRange(context.Background(), hotelID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		t.Fatal(err)
	}
	return domain.IndexNights(rows)
}

func availableRooms(t *testing.T, s domain.BookingStore, hotelID int64) int {
	t.Helper()
	h, err := s.GetHotel(context.Background(), hotelID)
	if err != nil {
		t.Fatal(err)
	}
	return h.AvailableRooms
}
