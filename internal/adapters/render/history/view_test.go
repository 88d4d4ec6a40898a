package history

import (
	"testing"
	"time"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmptyHistory(t *testing.T) {
	output, err := Render(nil, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, output, "checks: 0")
	assert.Contains(t, output, "No checks recorded yet.")
}

func TestRenderCompletedCheck(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	output, err := Render([]domain.Check{
		{
			ID:              "check-1",
			Status:          domain.StatusCompleted,
			TotalRefs:       14,
			ErrorsCount:     1,
			WarningsCount:   2,
			UnverifiedCount: 3,
			Title:           "Paper",
			Source:          "paper.pdf",
			Timestamp:       now.Add(-2 * time.Minute),
		},
	}, RenderOptions{Now: now, StaleAfter: 30 * time.Second})

	require.NoError(t, err)
	assert.Contains(t, output, "checks: 1")
	assert.Contains(t, output, "Paper (check-1)")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "refs: 14")
	assert.Contains(t, output, "errors: 1")
	assert.Contains(t, output, "(2m ago)")
	assert.NotContains(t, output, "[stale]")
}

func TestRenderMarksStaleInProgressCheck(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	output, err := Render([]domain.Check{
		{
			ID:        "check-1",
			Status:    domain.StatusInProgress,
			TotalRefs: 10,
			Source:    "draft.md",
			Timestamp: now.Add(-5 * time.Minute),
		},
	}, RenderOptions{Now: now, StaleAfter: 30 * time.Second})

	require.NoError(t, err)
	assert.Contains(t, output, "in_progress")
	assert.Contains(t, output, "[stale]")
}

func TestRenderFallsBackToSourceForTitle(t *testing.T) {
	output, err := Render([]domain.Check{
		{ID: "check-1", Status: domain.StatusStarting, Source: "draft.md"},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "draft.md (check-1)")
}

func TestRenderExpandsResultsWhenRequested(t *testing.T) {
	check := domain.Check{
		ID:     "check-1",
		Status: domain.StatusCompleted,
		Title:  "Paper",
		Results: []domain.Result{
			{Reference: "Smith 2019", Verdict: domain.VerdictVerified},
			{Reference: "Doe 2021", Verdict: domain.VerdictError, Detail: "404"},
		},
	}

	collapsed, err := Render([]domain.Check{check}, RenderOptions{})
	require.NoError(t, err)
	assert.NotContains(t, collapsed, "Smith 2019")

	expanded, err := Render([]domain.Check{check}, RenderOptions{ShowResults: true})
	require.NoError(t, err)
	assert.Contains(t, expanded, "Smith 2019")
	assert.Contains(t, expanded, "Doe 2021")
	assert.Contains(t, expanded, "404")
}
