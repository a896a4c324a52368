package attendance

import "time"

// Timeframes
const (
	TimeframeToday = "today"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeYear  = "year"
)

// DateRange is an inclusive range of calendar days, Start <= End.
type DateRange struct {
	Start Day `json:"startDate"`
	End   Day `json:"endDate"`
}

// TimeframeLabel returns a display label for a timeframe keyword.
func TimeframeLabel(tf string) string {
	switch tf {
	case TimeframeToday:
		return "Today"
	case TimeframeWeek:
		return "This Week"
	case TimeframeMonth:
		return "This Month"
	case TimeframeYear:
		return "This Year"
	}
	return tf
}

// ResolveRange resolves a timeframe keyword against a reference instant into a
// concrete day range, in the reference's location:
//   - today: the calendar day containing now
//   - week: Monday of now's week through now's day (a Sunday reference maps to
//     the Monday 6 days earlier)
//   - month: the 1st of now's month through now's day
//   - year: January 1st of now's year through now's day
//
// An unrecognized keyword falls back to today.
func ResolveRange(tf string, now time.Time) DateRange {
	today := DayOf(now)

	switch tf {
	case TimeframeWeek:
		daysFromMonday := int(now.Weekday()) - 1
		if now.Weekday() == time.Sunday {
			daysFromMonday = 6
		}
		return DateRange{Start: today.AddDays(-daysFromMonday), End: today}
	case TimeframeMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: DayOf(first), End: today}
	case TimeframeYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: DayOf(first), End: today}
	}
	return DateRange{Start: today, End: today}
}
