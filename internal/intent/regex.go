package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"smartscheduler/internal/domain"
)

const SourceRegex = "regex"

var (
	reExit      = regexp.MustCompile(`^(?:exit|quit|bye|goodbye|stop)$`)
	reListToday = regexp.MustCompile(`\b(?:meetings?|events?)\s+(?:for\s+|on\s+)?today\b|\bwhat(?:'s| is| do i have| meetings| events)\b[^.?!]*\btoday\b`)
	reCancel    = regexp.MustCompile(`\bcancel\b`)
	reMeetingNo = regexp.MustCompile(`\b(?:meeting|event|call|appointment)s?\b`)
	reFreeSlots = regexp.MustCompile(`\bfree\s+(?:slots?|time)\b|\bavailability\b|\bwhen\s+am\s+i\s+free\b`)
	reSchedule  = regexp.MustCompile(`\b(?:schedule|book|set\s+up|arrange|plan|add|create)\b`)

	reQuoted   = regexp.MustCompile(`["“]([^"”]{2,80})["”]`)
	reNamed    = regexp.MustCompile(`(?i)\b(?:called|titled|named|about|regarding)\s+(.+?)(?:\s+(?:on|at|for|with|tomorrow|today|tonight|next|this|in|from|by)\b|[.,!?;]|$)`)
	reVerbNoun = regexp.MustCompile(`(?i)\b(?:schedule|book|set\s+up|arrange|plan|add|create)\s+(?:a|an|the|my|our|some)?\s*(.+?)(?:\s+(?:on|at|for|with|tomorrow|today|tonight|next|this|in|from|by|called|titled|named)\b|[.,!?;]|$)`)

	reEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reWith  = regexp.MustCompile(`\bwith\s+([A-Z][A-Za-z'\-]+(?:\s*(?:,\s*(?:and\s+)?|\s+and\s+|\s*&\s*)[A-Z][A-Za-z'\-]+)*)`)
	reSplit = regexp.MustCompile(`\s*(?:,\s*(?:and\s+)?|\s+and\s+|\s*&\s*)\s*`)
)

var genericTitles = map[string]bool{
	"meeting": true, "a meeting": true, "call": true, "a call": true, "event": true,
	"appointment": true, "something": true, "time": true, "slot": true, "it": true,
	"one": true, "meeting for": true,
}

// RegexExtractor reads intent with keyword and pattern heuristics. It never
// fails; fields it cannot find are left empty.
type RegexExtractor struct{}

func NewRegexExtractor() RegexExtractor {
	return RegexExtractor{}
}

func (RegexExtractor) Name() string {
	return SourceRegex
}

func (RegexExtractor) Extract(ctx context.Context, text string) (domain.Intent, error) {
	original := strings.TrimSpace(text)
	lower := normalizeClockText(original)

	in := domain.Intent{Action: DetectAction(lower)}

	if in.Action == domain.ActionExit {
		return in, nil
	}

	if _, minutes, ok := findDuration(lower); ok {
		in.DurationMinutes = domain.Minutes(minutes)
	}
	if phrase, _, ok := findDay(time.Now(), lower); ok {
		in.Day = phrase
	}
	if _, h, m, ok := findClock(lower); ok {
		in.Time = FormatClock(h, m)
	} else if part := ParseDayPart(lower); part != PartNone {
		in.Time = string(part)
	}
	if in.Action == domain.ActionSchedule || in.Action == domain.ActionUnknown {
		in.Title = extractTitle(original)
	}
	in.Attendees = extractAttendees(original)
	return in, nil
}

// DetectAction classifies an utterance. Precedence follows the order the
// assistant checks commands: exit, list today, cancel, free slots, schedule.
func DetectAction(text string) domain.Action {
	t := strings.ToLower(strings.TrimSpace(text))
	bare := strings.Trim(t, " .!?,")
	switch {
	case reExit.MatchString(bare):
		return domain.ActionExit
	case reListToday.MatchString(t):
		return domain.ActionListToday
	case reCancel.MatchString(t) && reMeetingNo.MatchString(t):
		return domain.ActionCancel
	case reFreeSlots.MatchString(t):
		return domain.ActionFreeSlots
	case reSchedule.MatchString(t):
		return domain.ActionSchedule
	}
	return domain.ActionUnknown
}

func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func extractTitle(text string) string {
	if m := reQuoted.FindStringSubmatch(text); m != nil {
		if t := cleanTitle(m[1]); t != "" {
			return t
		}
	}
	if m := reNamed.FindStringSubmatch(text); m != nil {
		if t := cleanTitle(m[1]); t != "" {
			return t
		}
	}
	if m := reVerbNoun.FindStringSubmatch(text); m != nil {
		if t := cleanTitle(m[1]); t != "" {
			return t
		}
	}
	return ""
}

func cleanTitle(raw string) string {
	t := strings.TrimSpace(raw)
	if phrase, _, ok := findDuration(strings.ToLower(t)); ok {
		if i := strings.Index(strings.ToLower(t), phrase); i >= 0 {
			t = strings.TrimSpace(t[:i] + t[i+len(phrase):])
		}
	}
	t = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(t, "long "), "-"))
	for _, article := range []string{"a ", "an ", "the "} {
		if strings.HasPrefix(strings.ToLower(t), article) {
			t = strings.TrimSpace(t[len(article):])
		}
	}
	t = strings.Trim(t, " .,!?;:\"'")
	if t == "" || genericTitles[strings.ToLower(t)] {
		return ""
	}
	return t
}

func extractAttendees(text string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}

	for _, email := range reEmail.FindAllString(text, -1) {
		add(email)
	}
	withoutEmails := reEmail.ReplaceAllString(text, "")
	for _, m := range reWith.FindAllStringSubmatch(withoutEmails, -1) {
		for _, name := range reSplit.Split(m[1], -1) {
			name = strings.TrimSpace(name)
			lower := strings.ToLower(name)
			if _, isDay := weekdays[lower]; isDay {
				continue
			}
			if _, isMonth := months[lower]; isMonth {
				continue
			}
			add(name)
		}
	}
	return out
}
