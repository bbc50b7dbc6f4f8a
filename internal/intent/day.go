package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const (
	weekdayAlt = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
	monthAlt   = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`
)

var (
	reISODate      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reMonthDay     = regexp.MustCompile(`\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	reDayMonth     = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlt + `)\b`)
	reNextWeekDay  = regexp.MustCompile(`\bnext\s+week(?:\s+on)?\s+(` + weekdayAlt + `)\b|\b(` + weekdayAlt + `)\s+next\s+week\b`)
	reNextWeekday  = regexp.MustCompile(`\bnext\s+(` + weekdayAlt + `)\b`)
	reThisWeekday  = regexp.MustCompile(`\b(?:this\s+|on\s+)?(` + weekdayAlt + `)\b`)
	reDayAfterTmrw = regexp.MustCompile(`\bday\s+after\s+tomorrow\b`)
	reTomorrow     = regexp.MustCompile(`\btomorrow\b`)
	reToday        = regexp.MustCompile(`\b(today|tonight)\b`)
)

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ResolveDay turns a day expression into midnight UTC of that day, relative
// to now. A bare weekday means its next occurrence, today included; "next
// <weekday>" skips today; a calendar date that already passed this year
// rolls to next year.
func ResolveDay(now time.Time, text string) (time.Time, bool) {
	_, day, ok := findDay(now, strings.ToLower(text))
	return day, ok
}

func findDay(now time.Time, t string) (phrase string, day time.Time, ok bool) {
	today := startOfDay(now)

	if m := reISODate.FindStringSubmatch(t); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if date, ok := makeDate(y, time.Month(mo), d); ok {
			return m[0], date, true
		}
	}
	if m := reMonthDay.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[2])
		if date, ok := upcomingDate(today, months[m[1]], d); ok {
			return m[0], date, true
		}
	}
	if m := reDayMonth.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[1])
		if date, ok := upcomingDate(today, months[m[2]], d); ok {
			return m[0], date, true
		}
	}
	if reDayAfterTmrw.MatchString(t) {
		return reDayAfterTmrw.FindString(t), today.AddDate(0, 0, 2), true
	}
	if m := reNextWeekDay.FindStringSubmatch(t); m != nil {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		return m[0], nextWeekday(today.AddDate(0, 0, 7), weekdays[name], true), true
	}
	if m := reNextWeekday.FindStringSubmatch(t); m != nil {
		return m[0], nextWeekday(today, weekdays[m[1]], false), true
	}
	if m := reTomorrow.FindString(t); m != "" {
		return m, today.AddDate(0, 0, 1), true
	}
	if m := reToday.FindString(t); m != "" {
		return m, today, true
	}
	if m := reThisWeekday.FindStringSubmatch(t); m != nil {
		return m[0], nextWeekday(today, weekdays[m[1]], true), true
	}
	return "", time.Time{}, false
}

func nextWeekday(from time.Time, wd time.Weekday, includeFrom bool) time.Time {
	ahead := (int(wd) - int(from.Weekday()) + 7) % 7
	if ahead == 0 && !includeFrom {
		ahead = 7
	}
	return from.AddDate(0, 0, ahead)
}

func upcomingDate(today time.Time, month time.Month, day int) (time.Time, bool) {
	date, ok := makeDate(today.Year(), month, day)
	if !ok {
		return time.Time{}, false
	}
	if date.Before(today) {
		return makeDate(today.Year()+1, month, day)
	}
	return date, true
}

// makeDate rejects dates time.Date would normalize, such as February 30.
func makeDate(y int, m time.Month, d int) (time.Time, bool) {
	if m < time.January || m > time.December || d < 1 {
		return time.Time{}, false
	}
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if date.Month() != m || date.Day() != d {
		return time.Time{}, false
	}
	return date, true
}
