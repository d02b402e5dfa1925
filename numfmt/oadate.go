package numfmt

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the layout date-formatted cells are rendered with
// (month/day/four-digit year, no padding).
const DateLayout = "1/2/2006"

// OLE Automation date bounds (exclusive).
const (
	minOADate = -657435.0
	maxOADate = 2958466.0
)

const msPerDay = 86_400_000

// oaEpoch is serial 0 of the OLE Automation calendar.
var oaEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// FromOADate converts an OLE Automation date serial to a time.
//
// The integer part counts days from 1899-12-30 and the fractional part is
// the time of day, rounded to the millisecond.  For negative serials the
// fraction is still a positive time of day: -1.25 is 1899-12-29 06:00.
// Serials 1 to 60 therefore land one day earlier than the spreadsheet's
// own 1900 calendar shows them (serial 60 is 1900-02-28).
func FromOADate(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || !(serial > minOADate && serial < maxOADate) {
		return time.Time{}, fmt.Errorf("numfmt: OLE date %v out of range", serial)
	}
	half := 0.5
	if serial < 0 {
		half = -0.5
	}
	ms := int64(serial*msPerDay + half)
	if ms < 0 {
		ms -= (ms % msPerDay) * 2
	}
	days := ms / msPerDay
	rem := ms % msPerDay
	return oaEpoch.AddDate(0, 0, int(days)).Add(time.Duration(rem) * time.Millisecond), nil
}

// ToOADate converts t to an OLE Automation date serial.  The wall-clock
// fields of t are used as-is; its location is not converted.
func ToOADate(t time.Time) float64 {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := (midnight.Unix() - oaEpoch.Unix()) / 86400
	ms := int64(t.Hour())*3_600_000 + int64(t.Minute())*60_000 +
		int64(t.Second())*1000 + int64(t.Nanosecond())/1_000_000
	frac := float64(ms) / msPerDay
	if days < 0 {
		return float64(days) - frac
	}
	return float64(days) + frac
}

// FormatDate renders serial with DateLayout.
func FormatDate(serial float64) (string, error) {
	t, err := FromOADate(serial)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
