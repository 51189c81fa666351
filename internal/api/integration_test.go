package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"skladik/internal/config"
	"skladik/internal/events"
	"skladik/internal/models"
	"skladik/internal/repository"
	"skladik/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type apiClient struct {
	t       *testing.T
	baseURL string
	key     string
	extra   string
}

func (c *apiClient) do(method, path, body string) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("x-api-key", c.key)
	req.Header.Set("x-api-extra", c.extra)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	return resp
}

type eventCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *eventCounter) handler(eventType string) events.EventHandler {
	return func(_ *events.Event) error {
		c.mu.Lock()
		c.counts[eventType]++
		c.mu.Unlock()
		return nil
	}
}

func (c *eventCounter) get(eventType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[eventType]
}

// TestServiceFlow walks the whole API the way a client would: create,
// read, update, filter, aggregate, delete, export, clock in. Auth and
// rate limiting are live, so every request goes through the full
// middleware chain.
func TestServiceFlow(t *testing.T) {
	logger := zerolog.New(io.Discard)

	bus := events.NewEventBus()
	counter := &eventCounter{counts: make(map[string]int)}
	for _, eventType := range []string{
		events.EventItemCreated,
		events.EventItemUpdated,
		events.EventItemDeleted,
		events.EventClockInCreated,
	} {
		bus.Subscribe(eventType, counter.handler(eventType))
	}

	items := store.NewItemStore(bus, &logger)
	clockIns := store.NewClockInStore(bus, &logger)

	cfg := config.APIConfig{
		HTTP: config.APIHTTPConfig{Port: 0},
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{
				{Key: "test-key", Extra: "test-extra", Name: "integration"},
			},
		},
		RateLimit: config.APIRateLimitConfig{Requests: 100, WindowSeconds: 60},
	}
	server := NewHTTPServer(&cfg, items, clockIns, repository.NewMemoryStateRepository(), &logger)
	ts := httptest.NewServer(server.server.Handler)
	defer ts.Close()

	client := &apiClient{t: t, baseURL: ts.URL, key: "test-key", extra: "test-extra"}

	// Create the first item and read it back.
	resp := client.do(http.MethodPost, "/items", `{"name":"Widget","price":9.99}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var widget models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&widget))
	resp.Body.Close()
	assert.Equal(t, int64(1), widget.ID)
	assert.Equal(t, "Widget", widget.Name)
	assert.Equal(t, 9.99, widget.Price)

	resp = client.do(http.MethodGet, "/items/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	resp.Body.Close()
	assert.Equal(t, widget, fetched)

	resp = client.do(http.MethodPost, "/items", `{"name":"Gadget","description":"handy","price":3.5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var gadget models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&gadget))
	resp.Body.Close()
	assert.Equal(t, int64(2), gadget.ID)

	// Listing preserves insertion order.
	resp = client.do(http.MethodGet, "/items", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Len(t, listed, 2)
	assert.Equal(t, int64(1), listed[0].ID)
	assert.Equal(t, int64(2), listed[1].ID)

	// Partial update touches only the sent field.
	resp = client.do(http.MethodPut, "/items/1", `{"price":12.5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, 12.5, updated.Price)

	resp = client.do(http.MethodGet, "/items/filter?min_price=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var filtered []models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&filtered))
	resp.Body.Close()
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(1), filtered[0].ID)

	resp = client.do(http.MethodGet, "/items/aggregate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var aggregated []models.ItemAggregate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&aggregated))
	resp.Body.Close()
	assert.Equal(t, []models.ItemAggregate{
		{Name: "Gadget", Count: 1},
		{Name: "Widget", Count: 1},
	}, aggregated)

	resp = client.do(http.MethodDelete, "/items/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted struct {
		Deleted bool  `json:"deleted"`
		ID      int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleted))
	resp.Body.Close()
	assert.True(t, deleted.Deleted)
	assert.Equal(t, int64(1), deleted.ID)

	resp = client.do(http.MethodGet, "/items/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Ids are never reused after a delete.
	resp = client.do(http.MethodPost, "/items", `{"name":"Doohickey","price":1.25}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var third models.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&third))
	resp.Body.Close()
	assert.Equal(t, int64(3), third.ID)

	resp = client.do(http.MethodPost, "/clock-in", `{"email":"worker@example.com","location":"HQ"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var record models.ClockInRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	resp.Body.Close()
	assert.Equal(t, int64(1), record.ID)
	assert.Equal(t, "worker@example.com", record.Email)

	resp = client.do(http.MethodGet, "/clock-in/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The export endpoint returns a parseable workbook.
	resp = client.do(http.MethodGet, "/items/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	f, err := excelize.OpenReader(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	rows, err := f.GetRows("Items")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	// Header plus the two surviving items.
	assert.Len(t, rows, 3)

	assert.Equal(t, 3, counter.get(events.EventItemCreated))
	assert.Equal(t, 1, counter.get(events.EventItemUpdated))
	assert.Equal(t, 1, counter.get(events.EventItemDeleted))
	assert.Equal(t, 1, counter.get(events.EventClockInCreated))
}
