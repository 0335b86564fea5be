package common

import "time"

// Wire formats used by the persisted files.
const (
	DateFormat      = "2006-01-02"
	TimestampFormat = "2006-01-02 15:04:05"
)

// LoadLocation loads the named timezone. When tzdata is unavailable (minimal
// containers) it falls back to fixed KST, the zone of the default exchanges.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// IsWeekend returns true for Saturday and Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// RecentTradingDay steps back one day at a time from t until it lands on a
// weekday. Exchange holidays are not consulted, so a holiday is returned as
// is and providers may answer it with an empty listing.
func RecentTradingDay(t time.Time) time.Time {
	for IsWeekend(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}
