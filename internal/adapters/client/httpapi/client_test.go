package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/refcheck-dev/refcheck/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStart(t *testing.T) {
	t.Parallel()

	var received startRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checks", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(startResponse{SessionID: received.SessionID, CheckID: "check-42"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	checkID, err := client.Start(context.Background(), ports.Submission{
		SessionID: "session-1",
		Title:     "Paper",
		Source:    "paper.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CheckID("check-42"), checkID)
	assert.Equal(t, "session-1", received.SessionID)
	assert.Equal(t, "paper.pdf", received.Source)
}

func TestClientStartWithoutAssignedID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Start(context.Background(), ports.Submission{SessionID: "session-1", Source: "paper.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no check id")
}

func TestClientDetail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checks/check-42", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(checkPayload{
			ID:          "check-42",
			Status:      "completed",
			TotalRefs:   14,
			ErrorsCount: 1,
			Timestamp:   "2026-08-24T10:00:00Z",
			Results: []resultPayload{
				{Reference: "ref-1", Verdict: "verified"},
				{Reference: "ref-2", Verdict: "error", Detail: "404"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	check, err := client.Detail(context.Background(), "check-42")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, check.Status)
	assert.Equal(t, 14, check.TotalRefs)
	require.Len(t, check.Results, 2)
	assert.Equal(t, domain.VerdictError, check.Results[1].Verdict)
	assert.False(t, check.Timestamp.IsZero())
}

func TestClientDetailRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"check-42","status":"finished"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Detail(context.Background(), "check-42")
	require.ErrorIs(t, err, domain.ErrUnknownStatus)
}

func TestClientHistory(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checks", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"checks":[
			{"id":"check-1","status":"completed","total_refs":5},
			{"id":"check-2","status":"in_progress","total_refs":2}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	checks, err := client.History(context.Background())
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.Equal(t, domain.CheckID("check-1"), checks[0].ID)
	assert.Equal(t, domain.StatusInProgress, checks[1].Status)
}

func TestClientCancel(t *testing.T) {
	t.Parallel()

	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	require.NoError(t, client.Cancel(context.Background(), "check-42"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/checks/check-42", path)
}

func TestClientSurfacesBackendErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "check not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Detail(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
