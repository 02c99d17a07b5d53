package domain

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	ErrInvalidStay = errors.New("invalid stay")

	// ErrNoAvailability: every room is taken on at least one night of the range.
	ErrNoAvailability = errors.New("no availability for the requested dates")
	// ErrNoRoomAvailable: capacity check passed but no single room is free for
	// the whole stay.
	ErrNoRoomAvailable = errors.New("no room available for the whole stay")
	// ErrRoomConflict: the chosen room/night was taken by a concurrent writer.
	ErrRoomConflict = errors.New("room already booked")

	ErrCancellationFailed = errors.New("cancellation failed")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrBookingCompleted   = errors.New("booking already completed")
)

// Declined reports whether err is a recoverable booking refusal rather than a
// failure.
func Declined(err error) bool {
	return errors.Is(err, ErrNoAvailability) ||
		errors.Is(err, ErrNoRoomAvailable) ||
		errors.Is(err, ErrRoomConflict)
}
