package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/refcheck-dev/refcheck/internal/domain"
)

type RenderOptions struct {
	Now        time.Time
	StaleAfter time.Duration
	// ShowResults expands the per-reference results of terminal checks.
	ShowResults bool
}

func renderView(checks []domain.Check, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Reference Check History"),
		s.header.Render(fmt.Sprintf("checks: %d", len(checks))),
	}

	if len(checks) == 0 {
		lines = append(lines, s.empty.Render("No checks recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, check := range checks {
		lines = append(lines, s.section.Render(renderCheck(check, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCheck(check domain.Check, opts RenderOptions, s styles) string {
	parts := []string{
		s.check.Render(checkTitle(check)),
		statusLine(check, opts, s),
		s.detail.Render(counterLine(check)),
	}

	if !check.Status.Terminal() && check.TotalRefs > 0 {
		bar := renderProgressBar(len(check.Results), check.TotalRefs, 24, s)
		if bar != "" {
			parts = append(parts, bar)
		}
	}

	if opts.ShowResults && check.Status.Terminal() && len(check.Results) > 0 {
		for _, result := range check.Results {
			parts = append(parts, s.detail.Render(resultLine(result)))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func checkTitle(check domain.Check) string {
	title := check.Title
	if title == "" {
		title = check.Source
	}
	if title == "" {
		title = "untitled"
	}

	return fmt.Sprintf("%s (%s)", title, check.ID)
}

func statusLine(check domain.Check, opts RenderOptions, s styles) string {
	label := s.counterKey.Render("status:")
	badge := statusBadge(check.Status, s)

	line := lipgloss.JoinHorizontal(lipgloss.Top, label, " ", badge)

	if !check.Timestamp.IsZero() && !opts.Now.IsZero() {
		line += " " + s.header.Render(fmt.Sprintf("(%s ago)", formatAge(opts.Now.Sub(check.Timestamp))))
	}

	if check.Stale(opts.Now, opts.StaleAfter) {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func statusBadge(status domain.Status, s styles) string {
	switch status {
	case domain.StatusCompleted:
		return s.completed.Render(string(status))
	case domain.StatusError:
		return s.failed.Render(string(status))
	case domain.StatusCancelled:
		return s.cancelled.Render(string(status))
	default:
		return s.running.Render(string(status))
	}
}

func counterLine(check domain.Check) string {
	return fmt.Sprintf("refs: %d  errors: %d  warnings: %d  unverified: %d",
		check.TotalRefs, check.ErrorsCount, check.WarningsCount, check.UnverifiedCount)
}

func resultLine(result domain.Result) string {
	line := fmt.Sprintf("  %-10s %s", result.Verdict, result.Reference)
	if result.Detail != "" {
		line += " (" + result.Detail + ")"
	}

	return line
}

func formatAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

func renderProgressBar(done, total, width int, s styles) string {
	if width <= 0 || total <= 0 {
		return ""
	}

	filled := done * width / total
	if filled > width {
		filled = width
	}

	var b strings.Builder
	b.WriteString(s.barBracket.Render("["))
	b.WriteString(s.barFill.Render(strings.Repeat("█", filled)))
	b.WriteString(s.barEmpty.Render(strings.Repeat("░", width-filled)))
	b.WriteString(s.barBracket.Render("]"))

	return b.String()
}
