package assistant

import (
	"fmt"
	"strings"
	"time"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/intent"
)

// WorkHours is the default search range of a day, in whole UTC hours.
type WorkHours struct {
	Start int
	End   int
}

var DefaultWorkHours = WorkHours{Start: 9, End: 17}

// SearchWindow picks the part of day to search. An explicit clock time t
// searches [t, t+max(1h, duration)); a day part searches its hours; anything
// else searches the work day.
func SearchWindow(day time.Time, pref string, duration time.Duration, hours WorkHours) domain.TimeInterval {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time {
		return midnight.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}

	if pref != "" {
		if h, m, ok := intent.ParseClock(pref); ok {
			start := at(h, m)
			length := duration
			if length < time.Hour {
				length = time.Hour
			}
			return domain.TimeInterval{Start: start, End: start.Add(length)}
		}
		if startH, endH, ok := intent.ParseDayPart(pref).Hours(); ok {
			return domain.TimeInterval{Start: at(startH, 0), End: at(endH, 0)}
		}
	}
	return domain.TimeInterval{Start: at(hours.Start, 0), End: at(hours.End, 0)}
}

const clockLayout = "03:04 PM"

// FormatSlot renders a slot as "09:00 AM–09:30 AM" in UTC.
func FormatSlot(slot domain.TimeInterval) string {
	return slot.Start.UTC().Format(clockLayout) + "–" + slot.End.UTC().Format(clockLayout)
}

func formatDay(day time.Time) string {
	return day.UTC().Format("Monday, January 2")
}

// joinWords renders a list as "a", "a and b" or "a, b and c".
func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}
	return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
