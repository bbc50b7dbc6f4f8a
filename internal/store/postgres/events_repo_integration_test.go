package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"smartscheduler/internal/domain"
	"smartscheduler/internal/store"
)

func TestPostgresIntegration_EventCreateListOverlapAndIdempotency(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("SMARTSCHEDULER_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("SMARTSCHEDULER_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "smartscheduler_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema + ", public").Exec(ctx); err != nil {
			return err
		}
		if err := Migrate(ctx, tx); err != nil {
			return err
		}

		c := calendarTx{tx: tx}

		calendarID := "primary"
		start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
		end := start.Add(time.Hour)

		e1, err := c.CreateEvent(ctx, domain.Event{
			ID:         "00000000000000000000000000000901",
			CalendarID: calendarID,
			Title:      "t",
			Attendees:  []string{"a@example.com"},
			StartTime:  start,
			EndTime:    end,
		})
		if err != nil {
			return err
		}

		rows, err := c.ListEvents(ctx, calendarID, start.Add(-time.Minute), end.Add(time.Minute))
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			return fmt.Errorf("len(rows) = %d, want 1", len(rows))
		}
		if rows[0].ID != e1.ID {
			return fmt.Errorf("listed id = %s, want %s", rows[0].ID, e1.ID)
		}

		_, err = c.CreateEvent(ctx, domain.Event{
			ID:         "00000000000000000000000000000902",
			CalendarID: calendarID,
			Title:      "t2",
			StartTime:  start.Add(30 * time.Minute),
			EndTime:    end.Add(30 * time.Minute),
		})
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("overlap err = %v, want %v", err, store.ErrConflict)
		}

		// back-to-back with e1 is allowed
		e2, err := c.CreateEvent(ctx, domain.Event{
			CalendarID: calendarID,
			Title:      "t3",
			StartTime:  end,
			EndTime:    end.Add(time.Hour),
		})
		if err != nil {
			return err
		}
		if e2.ID == "" {
			return fmt.Errorf("expected generated id")
		}

		// same window on another calendar is allowed
		if _, err := c.CreateEvent(ctx, domain.Event{
			CalendarID: "other",
			Title:      "t4",
			StartTime:  start,
			EndTime:    end,
		}); err != nil {
			return err
		}

		replay, err := c.CreateEvent(ctx, domain.Event{
			ID:         e1.ID,
			CalendarID: calendarID,
			Title:      "t",
			Attendees:  []string{"a@example.com"},
			StartTime:  start,
			EndTime:    end,
		})
		if err != nil {
			return err
		}
		if replay.ID != e1.ID {
			return fmt.Errorf("replay id = %s, want %s", replay.ID, e1.ID)
		}

		_, err = c.CreateEvent(ctx, domain.Event{
			ID:         e1.ID,
			CalendarID: calendarID,
			Title:      "different",
			StartTime:  start,
			EndTime:    end,
		})
		if !errors.Is(err, store.ErrIdempotencyConflict) {
			return fmt.Errorf("idempotency err = %v, want %v", err, store.ErrIdempotencyConflict)
		}

		if err := c.DeleteEvent(ctx, calendarID, e1.ID); err != nil {
			return err
		}
		if err := c.DeleteEvent(ctx, calendarID, e1.ID); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("second delete err = %v, want %v", err, store.ErrNotFound)
		}

		rows, err = c.ListEvents(ctx, calendarID, start, end.Add(time.Hour))
		if err != nil {
			return err
		}
		if len(rows) != 1 || rows[0].ID != e2.ID {
			return fmt.Errorf("rows after delete = %v, want only %s", rows, e2.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
