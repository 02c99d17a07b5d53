package app

import (
	"context"
	"time"

	"travel_companion/internal/domain"
)

const gridDays = 7

// IsAvailable reports whether the hotel can take one more booking somewhere in
// stay: on no night of the stay are all rooms taken.
func (s *BookingService) IsAvailable(ctx context.Context, hotelID int64, stay domain.Stay) (bool, error) {
	h, err := s.store.GetHotel(ctx, hotelID)
	if err != nil {
		return false, err
	}
	return hasCapacity(ctx, s.store, h, stay)
}

func hasCapacity(ctx context.Context, r domain.LedgerReader, h domain.Hotel, stay domain.Stay) (bool, error) {
	rows, err := r.LedgerRange(ctx, h.ID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return false, err
	}
	return maxBookedPerNight(rows) < h.TotalRooms, nil
}

func maxBookedPerNight(rows []domain.RoomAvailability) int {
	perNight := make(map[time.Time]int)
	peak := 0
	for _, r := range rows {
		if r.IsAvailable {
			continue
		}
		d := domain.Day(r.Date)
		perNight[d]++
		if perNight[d] > peak {
			peak = perNight[d]
		}
	}
	return peak
}

// Grid returns room-by-room availability for the days starting at start.
// days <= 0 means one week.
func (s *BookingService) Grid(ctx context.Context, hotelID int64, start time.Time, days int) (domain.Grid, error) {
	if days <= 0 {
		days = gridDays
	}
	h, err := s.store.GetHotel(ctx, hotelID)
	if err != nil {
		return domain.Grid{}, err
	}
	from := domain.Day(start)
	to := from.AddDate(0, 0, days)
	rows, err := s.store.LedgerRange(ctx, h.ID, from, to)
	if err != nil {
		return domain.Grid{}, err
	}
	nights := domain.IndexNights(rows)

	g := domain.Grid{
		HotelID:    h.ID,
		TotalRooms: h.TotalRooms,
		Cells:      make(map[string][]bool, days),
	}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(domain.DateLayout)
		g.Dates = append(g.Dates, key)
		rooms := make([]bool, h.TotalRooms)
		for room := 1; room <= h.TotalRooms; room++ {
			rooms[room-1] = nights.Available(d, room)
		}
		g.Cells[key] = rooms
	}
	return g, nil
}
