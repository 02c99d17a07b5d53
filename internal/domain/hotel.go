package domain

import "time"

const DefaultTotalRooms = 20

type Hotel struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	PricePerNight  float64   `json:"price_per_night"`
	Rating         float64   `json:"rating"`
	Description    *string   `json:"description,omitempty"`
	TotalRooms     int       `json:"total_rooms"`
	AvailableRooms int       `json:"available_rooms"` // cached; see AvailableRooms()
	LastUpdated    time.Time `json:"last_updated"`
}

// Recommendation is a candidate hotel produced by the external recommendation
// service. It becomes a Hotel the first time someone books it.
type Recommendation struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Description *string `json:"description,omitempty"`
}

func (r Recommendation) Hotel(totalRooms int, now time.Time) Hotel {
	if totalRooms <= 0 {
		totalRooms = DefaultTotalRooms
	}
	return Hotel{
		ID:             r.ID,
		Name:           r.Name,
		Location:       r.Location,
		PricePerNight:  r.Price,
		Rating:         r.Rating,
		Description:    r.Description,
		TotalRooms:     totalRooms,
		AvailableRooms: totalRooms,
		LastUpdated:    now,
	}
}

// AvailableRooms derives the hotel aggregate from the number of distinct rooms
// holding at least one unavailable night.
func AvailableRooms(totalRooms, bookedRooms int) int {
	if n := totalRooms - bookedRooms; n > 0 {
		return n
	}
	return 0
}
