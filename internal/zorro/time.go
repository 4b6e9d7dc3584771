// Package zorro implements the host-side encodings the bridge has to speak:
// the fractional-day timestamp format and the bar close-time convention.
package zorro

import (
	"math"
	"time"

	"zorrobridge/internal/domain"
)

// Date is a timestamp in the host's convention: a fractional count of days
// since 1899-12-30 00:00 UTC. 1970-01-01 00:00 UTC is exactly 25569.0.
type Date float64

// epochOffsetDays is the host-format value of the Unix epoch.
const epochOffsetDays = 25569.0

const secondsPerDay = 24 * 60 * 60

// DateFromTime converts t to the host's fractional-day encoding.
func DateFromTime(t time.Time) Date {
	return Date(float64(t.Unix())/secondsPerDay + epochOffsetDays)
}

// DateFromUnix converts epoch seconds to the host's fractional-day encoding.
func DateFromUnix(sec int64) Date {
	return Date(float64(sec)/secondsPerDay + epochOffsetDays)
}

// Time converts d back to a time.Time, rounded to the nearest whole second.
// Round-tripping an integer epoch-seconds value through Date is exact.
func (d Date) Time() time.Time {
	sec := int64(math.Round((float64(d) - epochOffsetDays) * secondsPerDay))
	return time.Unix(sec, 0).UTC()
}

// Unix converts d to epoch seconds, rounded to the nearest whole second.
func (d Date) Unix() int64 {
	return int64(math.Round((float64(d) - epochOffsetDays) * secondsPerDay))
}

// BarClose shifts a provider bar-open timestamp to the close time of the
// bar, which is the timestamp convention the host expects for history.
func BarClose(barOpen time.Time, w domain.BarWidth) time.Time {
	return barOpen.Add(w.Duration())
}
