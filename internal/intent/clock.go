package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reClockColon  = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	reClockPeriod = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	reClockOClock = regexp.MustCompile(`\b(\d{1,2})\s*o'?\s?clock(?:\s*(am|pm))?\b`)
	reClockAt     = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)
	reNoon        = regexp.MustCompile(`\b(noon|midday|midnight)\b`)
)

// normalizeClockText lowercases and folds "p.m." style periods.
func normalizeClockText(text string) string {
	t := strings.ToLower(text)
	t = strings.NewReplacer("a.m.", "am", "p.m.", "pm", "a. m.", "am", "p. m.", "pm").Replace(t)
	return t
}

// ParseClock finds the first clock time in text ("2 pm", "14:30", "3
// o'clock", "noon", "at 9") and returns it on a 24-hour clock.
func ParseClock(text string) (hour, minute int, ok bool) {
	_, hour, minute, ok = findClock(normalizeClockText(text))
	return hour, minute, ok
}

// findClock returns the matched phrase as well.
func findClock(t string) (phrase string, hour, minute int, ok bool) {
	type candidate struct {
		pos    int
		phrase string
		hour   int
		minute int
	}
	var best *candidate
	consider := func(pos int, phrase string, h, m int, period string) {
		if period == "" && h >= 1 && h <= 7 && !strings.HasPrefix(phrase, "0") {
			// "at 3" means the afternoon, not 3 in the morning
			period = "pm"
		}
		h, ok := applyPeriod(h, period)
		if !ok || m < 0 || m > 59 {
			return
		}
		if best == nil || pos < best.pos {
			best = &candidate{pos: pos, phrase: strings.TrimSpace(phrase), hour: h, minute: m}
		}
	}

	for _, loc := range reClockColon.FindAllStringSubmatchIndex(t, -1) {
		h, _ := strconv.Atoi(t[loc[2]:loc[3]])
		m, _ := strconv.Atoi(t[loc[4]:loc[5]])
		consider(loc[0], t[loc[0]:loc[1]], h, m, group(t, loc, 3))
	}
	for _, loc := range reClockPeriod.FindAllStringSubmatchIndex(t, -1) {
		h, _ := strconv.Atoi(t[loc[2]:loc[3]])
		consider(loc[0], t[loc[0]:loc[1]], h, 0, group(t, loc, 2))
	}
	for _, loc := range reClockOClock.FindAllStringSubmatchIndex(t, -1) {
		h, _ := strconv.Atoi(t[loc[2]:loc[3]])
		consider(loc[0], t[loc[0]:loc[1]], h, 0, group(t, loc, 2))
	}
	if best == nil {
		for _, loc := range reClockAt.FindAllStringSubmatchIndex(t, -1) {
			h, _ := strconv.Atoi(t[loc[2]:loc[3]])
			consider(loc[0], t[loc[2]:loc[3]], h, 0, "")
		}
	}
	if loc := reNoon.FindStringSubmatchIndex(t); loc != nil {
		h := 12
		if t[loc[2]:loc[3]] == "midnight" {
			h = 0
		}
		consider(loc[0], t[loc[0]:loc[1]], h, 0, "")
	}

	if best == nil {
		return "", 0, 0, false
	}
	return best.phrase, best.hour, best.minute, true
}

func group(t string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return t[loc[2*n]:loc[2*n+1]]
}

func applyPeriod(h int, period string) (int, bool) {
	switch period {
	case "am":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h == 12 {
			return 0, true
		}
		return h, true
	case "pm":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h == 12 {
			return 12, true
		}
		return h + 12, true
	}
	if h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// DayPart is a coarse time-of-day preference.
type DayPart string

const (
	PartNone      DayPart = ""
	PartMorning   DayPart = "morning"
	PartAfternoon DayPart = "afternoon"
	PartEvening   DayPart = "evening"
)

// ParseDayPart reports the first of morning, afternoon or evening named in
// text.
func ParseDayPart(text string) DayPart {
	t := strings.ToLower(text)
	best, bestPos := PartNone, -1
	for _, p := range []DayPart{PartMorning, PartAfternoon, PartEvening} {
		if i := strings.Index(t, string(p)); i >= 0 && (bestPos < 0 || i < bestPos) {
			best, bestPos = p, i
		}
	}
	if best == PartNone && strings.Contains(t, "tonight") {
		return PartEvening
	}
	return best
}

// Hours returns the [start, end) hours of the part on a 24-hour clock.
func (p DayPart) Hours() (start, end int, ok bool) {
	switch p {
	case PartMorning:
		return 9, 12, true
	case PartAfternoon:
		return 12, 17, true
	case PartEvening:
		return 17, 20, true
	}
	return 0, 0, false
}
