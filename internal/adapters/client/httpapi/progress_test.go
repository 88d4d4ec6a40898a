package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollSourceDeliversTaggedEvents(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			require.Equal(t, "0", r.URL.Query().Get("cursor"))
			_ = json.NewEncoder(w).Encode(eventsResponse{
				Cursor: 2,
				Events: []eventPayload{
					{SessionID: "s-1", CheckID: "c-1", Status: "in_progress", TotalRefs: 4},
					{SessionID: "s-2", CheckID: "c-2", Status: "completed", TotalRefs: 9},
				},
			})
			return
		}

		require.Equal(t, "2", r.URL.Query().Get("cursor"))
		_ = json.NewEncoder(w).Encode(eventsResponse{Cursor: 2})
	}))
	defer server.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := NewPollSource(NewClient(server.URL, nil), 10*time.Millisecond, log)
	events, err := source.Subscribe(ctx)
	require.NoError(t, err)

	first := receiveEvent(t, events)
	assert.Equal(t, domain.SessionID("s-1"), first.SessionID)
	assert.Equal(t, domain.CheckID("c-1"), first.CheckID)
	assert.Equal(t, domain.StatusInProgress, first.Status)
	assert.Equal(t, 4, first.TotalRefs)

	second := receiveEvent(t, events)
	assert.Equal(t, domain.StatusCompleted, second.Status)

	cancel()
	requireClosed(t, events)
}

func TestPollSourceKeepsPollingThroughFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(eventsResponse{
			Cursor: 1,
			Events: []eventPayload{{SessionID: "s-1", CheckID: "c-1", Status: "starting"}},
		})
	}))
	defer server.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := NewPollSource(NewClient(server.URL, nil), 10*time.Millisecond, log)
	events, err := source.Subscribe(ctx)
	require.NoError(t, err)

	event := receiveEvent(t, events)
	assert.Equal(t, domain.StatusStarting, event.Status)
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}

func receiveEvent(t *testing.T, events <-chan domain.ProgressEvent) domain.ProgressEvent {
	t.Helper()

	select {
	case event, ok := <-events:
		require.True(t, ok, "event channel closed early")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for progress event")
		return domain.ProgressEvent{}
	}
}

func requireClosed(t *testing.T, events <-chan domain.ProgressEvent) {
	t.Helper()

	select {
	case _, ok := <-events:
		if ok {
			// Drain anything already buffered before the close.
			requireClosed(t, events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event channel to close")
	}
}
