package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted calendar format for dates.
const DateLayout = "2006-01-02"

// DateInterval is a closed date range: both Start and End are rental days.
type DateInterval struct {
	Start time.Time
	End   time.Time
}

// NewDateInterval normalises both endpoints to UTC midnight and rejects
// ranges that end before they start.
func NewDateInterval(start, end time.Time) (DateInterval, error) {
	iv := DateInterval{Start: truncateDay(start), End: truncateDay(end)}
	if iv.Start.After(iv.End) {
		return DateInterval{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange,
			iv.Start.Format(DateLayout), iv.End.Format(DateLayout))
	}
	return iv, nil
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDateFormat, s)
	}
	return t, nil
}

// ParseDateInterval parses both endpoints and builds the interval.
func ParseDateInterval(start, end string) (DateInterval, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateInterval{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateInterval{}, err
	}
	return NewDateInterval(s, e)
}

// Overlaps reports whether the two intervals share at least one day.
func (d DateInterval) Overlaps(other DateInterval) bool {
	return !(d.End.Before(other.Start) || d.Start.After(other.End))
}

// DurationDays returns the inclusive day count used for pricing.
func (d DateInterval) DurationDays() (int, error) {
	start, end := truncateDay(d.Start), truncateDay(d.End)
	if start.After(end) {
		return 0, fmt.Errorf("%w: %s is after %s", ErrInvalidRange,
			start.Format(DateLayout), end.Format(DateLayout))
	}
	// Both ends are UTC midnight, so whole days divide exactly. Unix seconds
	// avoid the ~292 year limit of time.Duration.
	return int((end.Unix()-start.Unix())/secondsPerDay) + 1, nil
}

func (d DateInterval) String() string {
	return d.Start.Format(DateLayout) + ".." + d.End.Format(DateLayout)
}

type intervalJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarshalJSON encodes the interval as {"start":"YYYY-MM-DD","end":"YYYY-MM-DD"}.
func (d DateInterval) MarshalJSON() ([]byte, error) {
	return json.Marshal(intervalJSON{
		Start: d.Start.Format(DateLayout),
		End:   d.End.Format(DateLayout),
	})
}

// UnmarshalJSON only assigns to d when both dates parse and form a valid range.
func (d *DateInterval) UnmarshalJSON(data []byte) error {
	var raw intervalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDateFormat, err)
	}
	iv, err := ParseDateInterval(raw.Start, raw.End)
	if err != nil {
		return err
	}
	*d = iv
	return nil
}

const secondsPerDay = 24 * 60 * 60

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
