package snapshot

import "time"

// CapturedAtLayout renders capture times as "Tuesday, June 26, 2018, 09:20+00:00".
const CapturedAtLayout = "Monday, January 02, 2006, 15:04-07:00"

// FormatCapturedAt formats a unix capture timestamp in loc (time.Local when nil).
// Non-positive timestamps render as "".
func FormatCapturedAt(unix int64, loc *time.Location) string {
	if unix <= 0 {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unix, 0).In(loc).Format(CapturedAtLayout)
}
