package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30). Delivery days,
// entry dates and bill periods are all reckoned in IST by the backend.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Common layouts used on the wire and in exported statements
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006"
)

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// Today returns the current delivery day as a wire date (YYYY-MM-DD)
func Today() string {
	return Now().Format(DateLayout)
}

// ParseDate parses a wire date in IST. Timestamps carrying a time part
// (RFC 3339 or "2006-01-02 15:04:05") are accepted and truncated to the day.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{DateLayout, time.RFC3339, DateTimeLayout} {
		if t, err := time.ParseInLocation(layout, value, IST); err == nil {
			return StartOfDay(t), nil
		}
	}
	_, err := time.ParseInLocation(DateLayout, value, IST)
	return time.Time{}, err
}

// Display renders a wire date for humans ("05 Mar 2025"). Values that do not
// parse are returned unchanged.
func Display(value string) string {
	t, err := ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format(DisplayLayout)
}

// StartOfDay returns the start of day (00:00:00) in IST for the given time
func StartOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}
