package domain

import "time"

type BookingType string

const (
	BookingHotel BookingType = "hotel"
	BookingCar   BookingType = "car"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

type Booking struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	Type        BookingType   `json:"booking_type"`
	HotelID     *int64        `json:"hotel_id,omitempty"`
	CarRentalID *int64        `json:"car_rental_id,omitempty"`
	CheckIn     *time.Time    `json:"check_in,omitempty"`
	CheckOut    *time.Time    `json:"check_out,omitempty"`
	RoomNumber  *int          `json:"room_number,omitempty"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Stay returns the booked night range, ok=false for bookings without one.
func (b Booking) Stay() (Stay, bool) {
	if b.Type != BookingHotel || b.HotelID == nil || b.CheckIn == nil || b.CheckOut == nil {
		return Stay{}, false
	}
	return Stay{CheckIn: Day(*b.CheckIn), CheckOut: Day(*b.CheckOut)}, true
}

type CarType string

const (
	CarEconomy CarType = "economy"
	CarCompact CarType = "compact"
	CarMidsize CarType = "midsize"
	CarSUV     CarType = "suv"
	CarLuxury  CarType = "luxury"
)

type CarRental struct {
	ID         int64     `json:"id"`
	Location   string    `json:"location"`
	CarType    CarType   `json:"car_type"`
	PickupDate time.Time `json:"pickup_date"`
	ReturnDate time.Time `json:"return_date"`
}
