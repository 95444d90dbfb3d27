package util

import "time"

// Israel timezone (Asia/Jerusalem)
var israelLocation *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		// Fallback to IST (UTC+2) if tzdata is unavailable
		loc = time.FixedZone("IST", 2*60*60)
	}
	israelLocation = loc
}

// NowIsrael returns the current time in Israel timezone
func NowIsrael() time.Time {
	return time.Now().In(israelLocation)
}

// ToIsrael converts a time to Israel timezone
func ToIsrael(t time.Time) time.Time {
	return t.In(israelLocation)
}

// FormatIsrael formats a time in Israel timezone using the given layout
func FormatIsrael(t time.Time, layout string) string {
	return ToIsrael(t).Format(layout)
}

// FormatISODate renders a time as YYYY-MM-DD in Israel timezone.
func FormatISODate(t time.Time) string {
	return FormatIsrael(t, "2006-01-02")
}
