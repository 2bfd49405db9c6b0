// Package datetime formats on-chain unix timestamps and elapsed intervals for
// notification text. All dates render in UTC.
package datetime

import (
	"fmt"
	"time"
)

const (
	// DisplayDateFormat is the MM/DD/YYYY format used in notifications.
	DisplayDateFormat = "01/02/2006"

	secondsInMinute = 60
	secondsInHour   = 60 * secondsInMinute
	secondsInDay    = 24 * secondsInHour
)

// FromUnix converts an on-chain timestamp to a UTC time.
func FromUnix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// FormattedDate renders ts as MM/DD/YYYY.
func FormattedDate(ts int64) string {
	return FromUnix(ts).Format(DisplayDateFormat)
}

// FormattedDuration renders the largest non-zero whole unit among days, hours
// and minutes, truncating. Anything under a minute renders as "0 minutes".
func FormattedDuration(seconds int64) string {
	if days := seconds / secondsInDay; days != 0 {
		return fmt.Sprintf("%d days", days)
	}
	if hours := seconds / secondsInHour; hours != 0 {
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", seconds/secondsInMinute)
}
