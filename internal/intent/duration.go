package intent

import (
	"regexp"
	"strconv"
	"strings"
)

var numberWords = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "fifteen": 15, "twenty": 20, "thirty": 30, "forty": 40,
	"forty-five": 45, "forty five": 45, "fifty": 50, "sixty": 60, "ninety": 90,
}

// MaxDurationMinutes is the longest meeting a phrase may describe.
const MaxDurationMinutes = 24 * 60

const numberAlt = `\d+(?:\.\d+)?|forty[- ]five|an|a|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|fifteen|twenty|thirty|forty|fifty|sixty|ninety`

var (
	reHalfHour       = regexp.MustCompile(`\bhalf\s+(?:an?\s+)?hour\b`)
	reQuarterHour    = regexp.MustCompile(`\bquarter\s+(?:of\s+)?(?:an?\s+)?hour\b`)
	reHourAndHalf    = regexp.MustCompile(`\b(` + numberAlt + `)\s+(?:hours?\s+and\s+a\s+half|and\s+a\s+half\s+hours?)\b`)
	reHoursMinutes   = regexp.MustCompile(`\b(` + numberAlt + `)\s*(?:hours?|hrs?|h)\s*(?:and\s+)?(` + numberAlt + `)\s*(?:minutes?|mins?|m)\b`)
	reHours          = regexp.MustCompile(`\b(` + numberAlt + `)[\s-]*(?:hours?|hrs?|h)\b`)
	reMinutes        = regexp.MustCompile(`\b(` + numberAlt + `)[\s-]*(?:minutes?|mins?|m)\b`)
	reCompactHourMin = regexp.MustCompile(`\b(\d+)h(\d{1,2})\b`)
)

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	if n, ok := numberWords[strings.ReplaceAll(s, "-", " ")]; ok {
		return n, true
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDuration finds a meeting length in text and returns it in whole
// minutes. Only positive lengths up to MaxDurationMinutes are reported.
func ParseDuration(text string) (minutes int, ok bool) {
	_, minutes, ok = findDuration(strings.ToLower(text))
	return minutes, ok
}

func findDuration(t string) (phrase string, minutes int, ok bool) {
	result := func(phrase string, m float64) (string, int, bool) {
		if m <= 0 || m > MaxDurationMinutes {
			return "", 0, false
		}
		return phrase, int(m + 0.5), true
	}

	if m := reHourAndHalf.FindStringSubmatch(t); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return result(m[0], n*60+30)
		}
	}
	if m := reHoursMinutes.FindStringSubmatch(t); m != nil {
		h, okH := parseNumber(m[1])
		mins, okM := parseNumber(m[2])
		if okH && okM {
			return result(m[0], h*60+mins)
		}
	}
	if m := reCompactHourMin.FindStringSubmatch(t); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		mins, _ := strconv.ParseFloat(m[2], 64)
		return result(m[0], h*60+mins)
	}
	if m := reHalfHour.FindString(t); m != "" {
		return m, 30, true
	}
	if m := reQuarterHour.FindString(t); m != "" {
		return m, 15, true
	}
	if m := reHours.FindStringSubmatch(t); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return result(m[0], n*60)
		}
	}
	if m := reMinutes.FindStringSubmatch(t); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return result(m[0], n)
		}
	}
	return "", 0, false
}
