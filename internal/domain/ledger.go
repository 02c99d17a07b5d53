package domain

import "time"

// RoomAvailability is one ledger row, unique on (HotelID, Date, RoomNumber).
// The ledger is sparse: a missing row means the room is free that night.
type RoomAvailability struct {
	HotelID     int64
	Date        time.Time
	RoomNumber  int
	IsAvailable bool
	BookingID   *int64
}

type NightKey struct {
	Date       time.Time
	RoomNumber int
}

func (r RoomAvailability) Key() NightKey {
	return NightKey{Date: Day(r.Date), RoomNumber: r.RoomNumber}
}

// Nights indexes ledger rows by (date, room) for get-or-default lookups.
type Nights map[NightKey]RoomAvailability

func IndexNights(rows []RoomAvailability) Nights {
	n := make(Nights, len(rows))
	for _, r := range rows {
		n[r.Key()] = r
	}
	return n
}

// Available reports whether room is free on date. Absent rows are available.
func (n Nights) Available(date time.Time, room int) bool {
	r, ok := n[NightKey{Date: Day(date), RoomNumber: room}]
	return !ok || r.IsAvailable
}

func (n Nights) Row(date time.Time, room int) (RoomAvailability, bool) {
	r, ok := n[NightKey{Date: Day(date), RoomNumber: room}]
	return r, ok
}

// Grid is the per-night, per-room view of a hotel's ledger.
type Grid struct {
	HotelID    int64             `json:"hotel_id"`
	TotalRooms int               `json:"total_rooms"`
	Dates      []string          `json:"dates"`
	Cells      map[string][]bool `json:"cells"` // date -> [room-1] -> available
}
