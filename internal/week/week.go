// Package week holds the Monday-keyed calendar arithmetic shared by the
// stores and the allowance engine. All functions operate on date-only values
// in the local time zone.
package week

import "time"

// MondayOf returns the Monday of the week containing t, truncated to
// midnight. Any date in the same Monday-Sunday span maps to the same Monday.
func MondayOf(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -Weekday(d))
}

// SundayOf returns the Sunday ending the week containing t.
func SundayOf(t time.Time) time.Time {
	return MondayOf(t).AddDate(0, 0, 6)
}

// Weekday returns the day number within the week, Monday = 0 through
// Sunday = 6. Chore preferred-day sets use the same numbering.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Days returns the seven dates of the week starting at monday, in order.
func Days(monday time.Time) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
