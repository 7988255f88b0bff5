package service

import (
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
)

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDate parses a YYYY-MM-DD value as UTC midnight.
func ParseDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, invalid(field, "is required")
	}
	t, err := time.ParseInLocation(model.DateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, invalid(field, "must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}

// ParseDateRange parses both ends and checks their order.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate("start_booking_date", start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate("end_booking_date", end)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{Start: s, End: e}
	return r, r.Validate()
}

// Validate rejects ranges whose end precedes their start.  A single-day
// range (start == end) is valid.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return invalid("end_booking_date", "must be on or after start_booking_date")
	}
	return nil
}

// Overlaps reports whether r and o share at least one day.  Ranges that
// only touch at an endpoint overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

// Of returns the booked range of b.
func Of(b model.Booking) DateRange { return DateRange{Start: b.StartDate, End: b.EndDate} }
