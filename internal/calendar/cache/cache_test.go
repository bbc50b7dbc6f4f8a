package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartscheduler/internal/calendar"
	"smartscheduler/internal/domain"
)

type memKV struct {
	data   map[string]string
	getErr error
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Incr(ctx context.Context, key string) error {
	n, _ := strconv.Atoi(m.data[key])
	m.data[key] = strconv.Itoa(n + 1)
	return nil
}

type fakeService struct {
	busyCalls int
	busy      []domain.TimeInterval
	busyErr   error
	created   []calendar.EventInput
	deleted   []string
}

func (f *fakeService) BusyIntervals(ctx context.Context, calendarID string, start, end time.Time) ([]domain.TimeInterval, error) {
	f.busyCalls++
	return f.busy, f.busyErr
}

func (f *fakeService) ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.Event, error) {
	return nil, nil
}

func (f *fakeService) CreateEvent(ctx context.Context, calendarID string, in calendar.EventInput) (domain.Event, error) {
	f.created = append(f.created, in)
	return domain.Event{ID: "new", CalendarID: calendarID, StartTime: in.Start, EndTime: in.End}, nil
}

func (f *fakeService) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

var (
	start = time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)
	end   = start.Add(8 * time.Hour)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusyCache_HitAfterMiss(t *testing.T) {
	next := &fakeService{busy: []domain.TimeInterval{{Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)}}}
	c := newBusyCache(next, newMemKV(), time.Minute, quietLogger(), nil)

	first, err := c.BusyIntervals(context.Background(), "primary", start, end)
	require.NoError(t, err)
	second, err := c.BusyIntervals(context.Background(), "primary", start, end)
	require.NoError(t, err)

	assert.Equal(t, 1, next.busyCalls)
	assert.Equal(t, first, second)
	assert.True(t, second[0].Start.Equal(start.Add(time.Hour)))
}

func TestBusyCache_WritesInvalidate(t *testing.T) {
	next := &fakeService{}
	c := newBusyCache(next, newMemKV(), time.Minute, quietLogger(), nil)
	ctx := context.Background()

	_, err := c.BusyIntervals(ctx, "primary", start, end)
	require.NoError(t, err)

	_, err = c.CreateEvent(ctx, "primary", calendar.EventInput{Title: "x", Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	_, err = c.BusyIntervals(ctx, "primary", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, next.busyCalls)

	require.NoError(t, c.DeleteEvent(ctx, "primary", "new"))
	_, err = c.BusyIntervals(ctx, "primary", start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, next.busyCalls)

	// another calendar keeps its own generation
	_, err = c.BusyIntervals(ctx, "other", start, end)
	require.NoError(t, err)
	_, err = c.BusyIntervals(ctx, "other", start, end)
	require.NoError(t, err)
	assert.Equal(t, 4, next.busyCalls)
}

func TestBusyCache_RedisFailureFallsThrough(t *testing.T) {
	next := &fakeService{busy: []domain.TimeInterval{}}
	store := newMemKV()
	store.getErr = errors.New("connection refused")
	c := newBusyCache(next, store, time.Minute, quietLogger(), nil)

	_, err := c.BusyIntervals(context.Background(), "primary", start, end)
	require.NoError(t, err)
	_, err = c.BusyIntervals(context.Background(), "primary", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, next.busyCalls)
}

func TestBusyCache_BackendErrorsAreNotCached(t *testing.T) {
	boom := errors.New("calendar down")
	next := &fakeService{busyErr: boom}
	c := newBusyCache(next, newMemKV(), time.Minute, quietLogger(), nil)

	_, err := c.BusyIntervals(context.Background(), "primary", start, end)
	assert.ErrorIs(t, err, boom)

	next.busyErr = nil
	next.busy = []domain.TimeInterval{}
	busy, err := c.BusyIntervals(context.Background(), "primary", start, end)
	require.NoError(t, err)
	assert.Empty(t, busy)
	assert.Equal(t, 2, next.busyCalls)
}

func TestBusyCache_CorruptEntryRefetches(t *testing.T) {
	next := &fakeService{busy: []domain.TimeInterval{}}
	store := newMemKV()
	store.data[windowKey("primary", "0", start, end)] = "not json"
	c := newBusyCache(next, store, time.Minute, quietLogger(), nil)

	_, err := c.BusyIntervals(context.Background(), "primary", start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, next.busyCalls)
}

func TestRedisIntegration_RoundTrip(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("SMARTSCHEDULER_TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("SMARTSCHEDULER_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := Dial(ctx, Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	calendarID := "it-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	t.Cleanup(func() {
		_ = client.Del(context.Background(), generationKey(calendarID)).Err()
	})

	next := &fakeService{busy: []domain.TimeInterval{{Start: start, End: start.Add(time.Hour)}}}
	c := New(next, client, 10*time.Second, quietLogger(), nil)

	_, err = c.BusyIntervals(ctx, calendarID, start, end)
	require.NoError(t, err)
	got, err := c.BusyIntervals(ctx, calendarID, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, next.busyCalls)
	require.Len(t, got, 1)
	assert.True(t, got[0].End.Equal(start.Add(time.Hour)))

	require.NoError(t, c.DeleteEvent(ctx, calendarID, "x"))
	_, err = c.BusyIntervals(ctx, calendarID, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, next.busyCalls)
}
