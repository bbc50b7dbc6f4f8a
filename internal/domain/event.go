package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Event is a calendar entry. Remote backends fill it from their own payloads;
// the Postgres backend persists it directly.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID         string    `bun:"id,pk" json:"id"`
	CalendarID string    `bun:"calendar_id,notnull" json:"calendar_id"`
	Title      string    `bun:"title,notnull" json:"title"`
	Notes      string    `bun:"notes" json:"notes,omitempty"`
	Attendees  []string  `bun:"attendees,array" json:"attendees,omitempty"`
	StartTime  time.Time `bun:"start_time,notnull" json:"start_time"`
	EndTime    time.Time `bun:"end_time,notnull" json:"end_time"`
	// AllDay marks date-only entries from remote calendars. They start at
	// 00:00 UTC but have no clock time of their own.
	AllDay     bool      `bun:"-" json:"all_day,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

func (e Event) Interval() TimeInterval {
	return TimeInterval{Start: e.StartTime.UTC(), End: e.EndTime.UTC()}
}

func (e *Event) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			e.ID = id.String()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}
