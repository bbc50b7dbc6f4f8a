package postgres

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/store"
)

type EventRepo struct {
	db *bun.DB
}

func NewEventRepo(db *bun.DB) *EventRepo {
	return &EventRepo{db: db}
}

type calendarTx struct {
	tx bun.Tx
}

func (r *EventRepo) Create(ctx context.Context, ev domain.Event) (domain.Event, error) {
	var out domain.Event
	err := r.InCalendarTransaction(ctx, ev.CalendarID, func(ctx context.Context, tx store.CalendarTx) error {
		e, err := tx.CreateEvent(ctx, ev)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return out, nil
}

func (r *EventRepo) List(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error) {
	var rows []domain.Event
	err := r.db.NewSelect().
		Model(&rows).
		Where("calendar_id = ?", calendarID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeRows(rows), nil
}

func (r *EventRepo) Delete(ctx context.Context, calendarID, eventID string) error {
	return r.InCalendarTransaction(ctx, calendarID, func(ctx context.Context, tx store.CalendarTx) error {
		return tx.DeleteEvent(ctx, calendarID, eventID)
	})
}

func (r *EventRepo) InCalendarTransaction(ctx context.Context, calendarID string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockCalendar(ctx, tx, calendarID); err != nil {
			return err
		}
		return fn(ctx, calendarTx{tx: tx})
	})
}

func lockCalendar(ctx context.Context, tx bun.Tx, calendarID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", calendarID).Exec(ctx)
	return err
}

// CreateEvent inserts ev. A row with the same id is treated as a replay: an
// identical row is returned as-is, a different one is ErrIdempotencyConflict.
// The insert runs under a savepoint so a constraint violation leaves the
// surrounding transaction usable.
func (r calendarTx) CreateEvent(ctx context.Context, ev domain.Event) (domain.Event, error) {
	m := domain.Event{
		ID:         ev.ID,
		CalendarID: ev.CalendarID,
		Title:      ev.Title,
		Notes:      ev.Notes,
		Attendees:  ev.Attendees,
		StartTime:  ev.StartTime.UTC(),
		EndTime:    ev.EndTime.UTC(),
		CreatedAt:  ev.CreatedAt,
		UpdatedAt:  ev.UpdatedAt,
	}

	if m.ID != "" {
		existing, found, err := r.findByID(ctx, m.ID)
		if err != nil {
			return domain.Event{}, err
		}
		if found {
			if !sameEvent(existing, m) {
				return domain.Event{}, store.ErrIdempotencyConflict
			}
			return normalizeRow(existing), nil
		}
	}

	if _, err := r.tx.NewRaw("SAVEPOINT create_event").Exec(ctx); err != nil {
		return domain.Event{}, err
	}
	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		if _, rbErr := r.tx.NewRaw("ROLLBACK TO SAVEPOINT create_event").Exec(ctx); rbErr != nil {
			return domain.Event{}, errors.Join(err, rbErr)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23P01" && pgErr.ConstraintName == "events_no_overlap" {
				return domain.Event{}, store.ErrConflict
			}
			if pgErr.Code == "23505" {
				return domain.Event{}, store.ErrIdempotencyConflict
			}
		}
		return domain.Event{}, err
	}
	if _, err := r.tx.NewRaw("RELEASE SAVEPOINT create_event").Exec(ctx); err != nil {
		return domain.Event{}, err
	}

	return normalizeRow(m), nil
}

func (r calendarTx) findByID(ctx context.Context, id string) (domain.Event, bool, error) {
	var existing domain.Event
	err := r.tx.NewSelect().
		Model(&existing).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, false, nil
	}
	if err != nil {
		return domain.Event{}, false, err
	}
	return existing, true, nil
}

func (r calendarTx) ListEvents(ctx context.Context, calendarID string, windowStart, windowEnd time.Time) ([]domain.Event, error) {
	var rows []domain.Event
	err := r.tx.NewSelect().
		Model(&rows).
		Where("calendar_id = ?", calendarID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeRows(rows), nil
}

func (r calendarTx) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	res, err := r.tx.NewDelete().
		Model((*domain.Event)(nil)).
		Where("calendar_id = ?", calendarID).
		Where("id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func sameEvent(a, b domain.Event) bool {
	return a.CalendarID == b.CalendarID &&
		a.Title == b.Title &&
		a.Notes == b.Notes &&
		slices.Equal(a.Attendees, b.Attendees) &&
		a.StartTime.Equal(b.StartTime) &&
		a.EndTime.Equal(b.EndTime)
}

func normalizeRow(e domain.Event) domain.Event {
	e.StartTime = e.StartTime.UTC()
	e.EndTime = e.EndTime.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e
}

func normalizeRows(rows []domain.Event) []domain.Event {
	for i := range rows {
		rows[i] = normalizeRow(rows[i])
	}
	return rows
}
