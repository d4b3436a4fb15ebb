package util

import (
	"time"

	"github.com/jinzhu/now"
)

// BeginningOfDayTimestamp normalizes a unix timestamp to the start of its
// UTC day.
func BeginningOfDayTimestamp(timestamp int64) int64 {
	return now.New(time.Unix(timestamp, 0).UTC()).BeginningOfDay().Unix()
}

// EndOfDayTimestamp normalizes a unix timestamp to the end of its UTC day.
func EndOfDayTimestamp(timestamp int64) int64 {
	return now.New(time.Unix(timestamp, 0).UTC()).EndOfDay().Unix()
}

// TimeNowUnix returns the current unix timestamp.
func TimeNowUnix() int64 {
	return time.Now().Unix()
}
