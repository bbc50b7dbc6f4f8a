package domain

// Action is what the user asked the assistant to do in a single utterance.
type Action string

const (
	ActionUnknown   Action = ""
	ActionSchedule  Action = "schedule"
	ActionFreeSlots Action = "free_slots"
	ActionListToday Action = "list_today"
	ActionCancel    Action = "cancel"
	ActionExit      Action = "exit"
)

type IntentField string

const (
	FieldAction    IntentField = "action"
	FieldDuration  IntentField = "duration"
	FieldDay       IntentField = "day"
	FieldTime      IntentField = "time"
	FieldTitle     IntentField = "title"
	FieldAttendees IntentField = "attendees"
)

// Intent is a partial, structured reading of one utterance. Nil pointers and
// empty strings mean the field was not found.
type Intent struct {
	Action          Action   `json:"action,omitempty"`
	DurationMinutes *int     `json:"meeting_duration,omitempty"`
	Day             string   `json:"preferred_day,omitempty"`
	Time            string   `json:"preferred_time,omitempty"`
	Title           string   `json:"title,omitempty"`
	Attendees       []string `json:"attendees,omitempty"`

	// Sources records which extractor supplied each field.
	Sources map[IntentField]string `json:"sources,omitempty"`
}

func (i Intent) Has(f IntentField) bool {
	switch f {
	case FieldAction:
		return i.Action != ActionUnknown
	case FieldDuration:
		return i.DurationMinutes != nil && *i.DurationMinutes > 0
	case FieldDay:
		return i.Day != ""
	case FieldTime:
		return i.Time != ""
	case FieldTitle:
		return i.Title != ""
	case FieldAttendees:
		return len(i.Attendees) > 0
	}
	return false
}

// Complete reports whether every field an extractor can fill is present.
func (i Intent) Complete() bool {
	for _, f := range AllIntentFields {
		if !i.Has(f) {
			return false
		}
	}
	return true
}

var AllIntentFields = []IntentField{
	FieldAction,
	FieldDuration,
	FieldDay,
	FieldTime,
	FieldTitle,
	FieldAttendees,
}

func Minutes(n int) *int {
	return &n
}
