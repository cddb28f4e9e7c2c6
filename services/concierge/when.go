package concierge

import (
	"fmt"
	"strings"
	"time"
)

// parseWhen turns the model's date and time strings into an absolute instant
// in the tenant's timezone. Accepted dates: YYYY-MM-DD, DD/MM/YYYY, "today",
// "tomorrow". Accepted times: HH:MM (24h).
func parseWhen(loc *time.Location, dateStr, timeStr string, now time.Time) (time.Time, error) {
	dateStr = strings.ToLower(strings.TrimSpace(dateStr))
	timeStr = strings.TrimSpace(timeStr)

	var year int
	var month time.Month
	var day int

	local := now.In(loc)
	switch dateStr {
	case "today":
		year, month, day = local.Date()
	case "tomorrow":
		year, month, day = local.AddDate(0, 0, 1).Date()
	default:
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, loc)
		if err != nil {
			parsed, err = time.ParseInLocation("02/01/2006", dateStr, loc)
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date %q", dateStr)
		}
		year, month, day = parsed.Date()
	}

	clock, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", timeStr)
	}

	return time.Date(year, month, day, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}
