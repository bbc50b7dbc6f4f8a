package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/llm"
)

const SourceLLM = "llm"

// ErrMalformedResponse means the model answered with something that is not
// the requested JSON object.
var ErrMalformedResponse = errors.New("malformed intent response")

const extractSystemPrompt = `You are a scheduling helper. Read the user's message and extract meeting details.
Return only a JSON object with exactly these keys:
  "meeting_duration": number of minutes or null ("1 hour" = 60),
  "preferred_day": text or null (for example "Tuesday", "tomorrow" or "June 20th"),
  "preferred_time": text or null (for example "afternoon" or "2 PM"),
  "title": text or null (for example "team sync"),
  "attendees": list of names or email addresses, or null.
Use null for anything the message does not mention. Do not guess.`

// LLMExtractor asks a language model for the intent. Answers are cached by
// normalized utterance.
type LLMExtractor struct {
	completer llm.Completer
	cache     *lru.Cache[string, domain.Intent]
}

func NewLLMExtractor(completer llm.Completer, cacheSize int) (*LLMExtractor, error) {
	ex := &LLMExtractor{completer: completer}
	if cacheSize > 0 {
		c, err := lru.New[string, domain.Intent](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create intent cache: %w", err)
		}
		ex.cache = c
	}
	return ex, nil
}

func (e *LLMExtractor) Name() string {
	return SourceLLM
}

func cacheKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func (e *LLMExtractor) Extract(ctx context.Context, text string) (domain.Intent, error) {
	key := cacheKey(text)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cloneIntent(cached), nil
		}
	}

	raw, err := e.completer.Complete(ctx, llm.Request{
		System: extractSystemPrompt,
		Prompt: fmt.Sprintf("Message: %q", text),
		JSON:   true,
	})
	if err != nil {
		return domain.Intent{}, err
	}
	in, err := ParseLLMIntent(raw)
	if err != nil {
		return domain.Intent{}, err
	}
	if e.cache != nil {
		e.cache.Add(key, cloneIntent(in))
	}
	return in, nil
}

func cloneIntent(in domain.Intent) domain.Intent {
	out := in
	if in.DurationMinutes != nil {
		out.DurationMinutes = domain.Minutes(*in.DurationMinutes)
	}
	out.Attendees = append([]string(nil), in.Attendees...)
	out.Sources = nil
	return out
}

type llmIntent struct {
	MeetingDuration any `json:"meeting_duration"`
	PreferredDay    any `json:"preferred_day"`
	PreferredTime   any `json:"preferred_time"`
	Title           any `json:"title"`
	Attendees       any `json:"attendees"`
}

// ParseLLMIntent decodes a model answer. It tolerates code fences, nulls,
// numbers sent as strings and durations written out ("1 hour").
func ParseLLMIntent(raw string) (domain.Intent, error) {
	body := llm.StripCodeFence(raw)
	if i, j := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}'); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var li llmIntent
	if err := json.Unmarshal([]byte(body), &li); err != nil {
		return domain.Intent{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var in domain.Intent
	if minutes, ok := durationValue(li.MeetingDuration); ok {
		in.DurationMinutes = domain.Minutes(minutes)
	}
	in.Day = stringValue(li.PreferredDay)
	if t := stringValue(li.PreferredTime); t != "" {
		if h, m, ok := ParseClock(t); ok {
			in.Time = FormatClock(h, m)
		} else {
			in.Time = t
		}
	}
	in.Title = stringValue(li.Title)
	in.Attendees = stringList(li.Attendees)
	return in, nil
}

func durationValue(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x > 0 && x <= MaxDurationMinutes {
			return int(math.Round(x)), true
		}
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n, n > 0 && n <= MaxDurationMinutes
		}
		return ParseDuration(s)
	}
	return 0, false
}

func stringValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "unknown":
		return ""
	}
	return s
}

func stringList(v any) []string {
	var out []string
	switch x := v.(type) {
	case string:
		for _, part := range reSplit.Split(x, -1) {
			if s := stringValue(part); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range x {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
