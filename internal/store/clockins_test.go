package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"skladik/internal/events"
	"skladik/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClockInStore(t *testing.T) *ClockInStore {
	t.Helper()
	logger := zerolog.Nop()
	return NewClockInStore(nil, &logger)
}

func TestClockInStore_CreateAndGet(t *testing.T) {
	s := newTestClockInStore(t)
	ctx := context.Background()

	// A caller-supplied timestamp must be discarded.
	stale := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	record := &models.ClockInRecord{Email: "worker@example.com", Location: "warehouse", InsertDatetime: stale}
	err := s.Create(ctx, record)
	require.NoError(t, err)

	assert.Equal(t, int64(1), record.ID)
	assert.NotEqual(t, stale, record.InsertDatetime)
	assert.False(t, record.InsertDatetime.IsZero())

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *record, *got)

	_, err = s.Get(ctx, 42)
	assert.True(t, errors.Is(err, ErrClockInNotFound))
}

func TestClockInStore_Validation(t *testing.T) {
	s := newTestClockInStore(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		email     string
		location  string
		wantField string
	}{
		{"empty email", "", "warehouse", "email"},
		{"no at sign", "worker.example.com", "warehouse", "email"},
		{"display name form", "Worker <worker@example.com>", "warehouse", "email"},
		{"empty location", "worker@example.com", "  ", "location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Create(ctx, &models.ClockInRecord{Email: tt.email, Location: tt.location})
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestClockInStore_Filter(t *testing.T) {
	s := newTestClockInStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &models.ClockInRecord{Email: "a@example.com", Location: "warehouse"}))
	require.NoError(t, s.Create(ctx, &models.ClockInRecord{Email: "b@example.com", Location: "office"}))
	require.NoError(t, s.Create(ctx, &models.ClockInRecord{Email: "a@example.com", Location: "office"}))

	byEmail, err := s.Filter(ctx, models.ClockInFilter{Email: "a@example.com"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	byBoth, err := s.Filter(ctx, models.ClockInFilter{Email: "a@example.com", Location: "office"})
	require.NoError(t, err)
	require.Len(t, byBoth, 1)
	assert.Equal(t, int64(3), byBoth[0].ID)

	// Since is strict: nothing is older than "now".
	none, err := s.Filter(ctx, models.ClockInFilter{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, none, 0)

	all, err := s.Filter(ctx, models.ClockInFilter{Since: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClockInStore_ListAndCount(t *testing.T) {
	s := newTestClockInStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &models.ClockInRecord{Email: "a@example.com", Location: "warehouse"}))
	require.NoError(t, s.Create(ctx, &models.ClockInRecord{Email: "b@example.com", Location: "office"}))

	records, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(2), records[1].ID)
	assert.Equal(t, 2, s.Count())
}

func TestClockInStore_PublishesEvent(t *testing.T) {
	bus := events.NewEventBus()
	logger := zerolog.Nop()
	s := NewClockInStore(bus, &logger)

	var payloads [][]byte
	bus.Subscribe(events.EventClockInCreated, func(event *events.Event) error {
		payloads = append(payloads, event.Payload)
		return nil
	})

	err := s.Create(context.Background(), &models.ClockInRecord{Email: "worker@example.com", Location: "warehouse"})
	require.NoError(t, err)
	assert.Len(t, payloads, 1)
}
