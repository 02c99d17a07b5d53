package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidStay, s)
	}
	return t, nil
}

// Stay is the half-open night range [CheckIn, CheckOut). The checkout day is
// never a night of the stay.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if !s.CheckIn.Before(s.CheckOut) {
		return Stay{}, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidStay)
	}
	return s, nil
}

func ParseStay(checkIn, checkOut string) (Stay, error) {
	in, err := ParseDay(checkIn)
	if err != nil {
		return Stay{}, err
	}
	out, err := ParseDay(checkOut)
	if err != nil {
		return Stay{}, err
	}
	return NewStay(in, out)
}

func (s Stay) Nights() []time.Time {
	var out []time.Time
	for d := s.CheckIn; d.Before(s.CheckOut); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (s Stay) NightCount() int { return len(s.Nights()) }

func (s Stay) String() string {
	return fmt.Sprintf("[%s, %s)", s.CheckIn.Format(DateLayout), s.CheckOut.Format(DateLayout))
}
