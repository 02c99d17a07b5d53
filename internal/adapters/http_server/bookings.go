package httpserver

import (
	"errors"
	"net/http"

	"travel_companion/internal/adapters/observability"
	"travel_companion/internal/app"
	"travel_companion/internal/domain"
)

type cancelResponse struct {
	Cancelled bool           `json:"cancelled"`
	Booking   domain.Booking `json:"booking"`
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "confirmed"
	case errors.Is(err, domain.ErrNoAvailability):
		return "no_availability"
	case errors.Is(err, domain.ErrNoRoomAvailable):
		return "no_room"
	case errors.Is(err, domain.ErrRoomConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidStay):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func cancellationOutcome(err error) string {
	switch {
	case err == nil:
		return "cancelled"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrBookingCompleted):
		return "rejected"
	default:
		return "error"
	}
}

func (h *Handlers) bookHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req bookHotelRequest
	if !h.decode(w, r, &req) {
		observability.ObserveBooking("invalid")
		return
	}
	stay, err := domain.ParseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		observability.ObserveBooking(bookingOutcome(err))
		writeError(w, r, err)
		return
	}
	rec := req.recommendation()
	if rec != nil && rec.ID != id {
		observability.ObserveBooking("invalid")
		writeProblem(w, http.StatusBadRequest, "Invalid Recommendation", "recommendation id must match the hotel id")
		return
	}

	b, err := h.B.Book(r.Context(), app.BookRequest{
		HotelID:        id,
		UserID:         userID(r.Context()),
		Stay:           stay,
		Recommendation: rec,
	})
	observability.ObserveBooking(bookingOutcome(err))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) bookCar(w http.ResponseWriter, r *http.Request) {
	var req carRentalRequest
	if !h.decode(w, r, &req) {
		observability.ObserveBooking("invalid")
		return
	}
	// Same-day rentals are allowed, so this is not a Stay.
	pickup, err := domain.ParseDay(req.PickupDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ret, err := domain.ParseDay(req.ReturnDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.B.BookCar(r.Context(), app.CarRentalRequest{
		UserID:     userID(r.Context()),
		Location:   req.Location,
		CarType:    domain.CarType(req.CarType),
		PickupDate: pickup,
		ReturnDate: ret,
	})
	observability.ObserveBooking(bookingOutcome(err))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	out, err := h.B.ListBookings(r.Context(), userID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		out = []domain.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// Ownership is checked here; Cancel itself is identity-agnostic.
	b, err := h.B.GetBooking(r.Context(), id)
	if err == nil && b.UserID != userID(r.Context()) {
		err = domain.ErrForbidden
	}
	if err == nil {
		_, err = h.B.Cancel(r.Context(), id)
	}
	observability.ObserveCancellation(cancellationOutcome(err))
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err = h.B.GetBooking(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: true, Booking: b})
}
