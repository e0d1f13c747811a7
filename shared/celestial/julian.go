package celestial

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// TimeToJD converts a calendar time to a Julian Date. The UTC/TT offset (about a minute)
// is ignored; it is far below the accuracy target of two-body propagation.
func TimeToJD(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// JDToTime converts a Julian Date back to a UTC calendar time.
func JDToTime(jd float64) time.Time {
	return julian.JDToTime(jd).UTC()
}
