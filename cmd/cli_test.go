package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequiresASource(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestCheckSubmitsAndPrintsAssignedID(t *testing.T) {
	home := t.TempDir()
	backend := newFakeBackend(t)

	stdout, _, err := executeCLI(t, home, backend.URL, "check", "paper.pdf")
	require.NoError(t, err)
	assert.Contains(t, stdout, "started check check-1")
	assert.Contains(t, stdout, "paper.pdf")
}

func TestCheckPersistsHistory(t *testing.T) {
	home := t.TempDir()
	backend := newFakeBackend(t)

	_, _, err := executeCLI(t, home, backend.URL, "check", "paper.pdf")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(home, ".refcheck", "history.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `id = "check-1"`)
	assert.Contains(t, string(data), `status = "starting"`)
}

func TestHistoryRendersPersistedChecks(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeHistoryFixture(home))

	stdout, _, err := executeCLI(t, home, "", "history", "--remote=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "checks: 2")
	assert.Contains(t, stdout, "Paper (check-1)")
	assert.Contains(t, stdout, "completed")
	assert.Contains(t, stdout, "draft.md (check-2)")
}

func TestHistoryJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeHistoryFixture(home))

	stdout, _, err := executeCLI(t, home, "", "history", "--remote=false", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, `"check-1"`)
}

func TestHistoryReconcilesAgainstBackend(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeHistoryFixture(home))
	backend := newFakeBackend(t)
	backend.history = []map[string]any{
		{"id": "check-2", "status": "completed", "total_refs": 9},
	}

	stdout, _, err := executeCLI(t, home, backend.URL, "history")
	require.NoError(t, err)

	// The persisted in_progress copy is upgraded by the backend's view.
	assert.NotContains(t, stdout, "in_progress")
	assert.Contains(t, stdout, "refs: 9")
}

func TestCancelRecordsTerminalState(t *testing.T) {
	home := t.TempDir()
	backend := newFakeBackend(t)

	stdout, _, err := executeCLI(t, home, backend.URL, "cancel", "check-7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cancelled check check-7")
	assert.Equal(t, []string{"check-7"}, backend.cancelled)

	data, err := os.ReadFile(filepath.Join(home, ".refcheck", "history.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `status = "cancelled"`)
}

type fakeBackend struct {
	*httptest.Server
	history   []map[string]any
	cancelled []string
	started   int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	backend := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /checks", func(w http.ResponseWriter, r *http.Request) {
		backend.started++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"check_id": "check-1",
		})
	})
	mux.HandleFunc("GET /checks", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"checks": backend.history})
	})
	mux.HandleFunc("GET /checks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": r.PathValue("id"), "status": "completed",
		})
	})
	mux.HandleFunc("DELETE /checks/{id}", func(w http.ResponseWriter, r *http.Request) {
		backend.cancelled = append(backend.cancelled, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"cursor": 0, "events": []any{}})
	})

	backend.Server = httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	return backend
}

func executeCLI(t *testing.T, home, baseURL string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	if baseURL != "" {
		t.Setenv("REFCHECK_BASE_URL", baseURL)
	}

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeHistoryFixture(home string) error {
	configDir := filepath.Join(home, ".refcheck")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	history := `version = 1

[[checks]]
id = "check-1"
status = "completed"
total_refs = 14
errors_count = 1
warnings_count = 0
unverified_count = 0
title = "Paper"
source = "paper.pdf"

[[checks]]
id = "check-2"
status = "in_progress"
total_refs = 5
errors_count = 0
warnings_count = 0
unverified_count = 0
source = "draft.md"
`

	return os.WriteFile(filepath.Join(configDir, "history.toml"), []byte(history), 0o644)
}
