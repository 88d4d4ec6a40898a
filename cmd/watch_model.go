package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/refcheck-dev/refcheck/internal/domain"
)

type progressMsg struct {
	event domain.ProgressEvent
}

type sourceClosedMsg struct{}

type reconcileDoneMsg struct{}

// watchModel is the interactive multi-check view. All inbound progress
// events funnel through the router on this single update loop; focus
// switching is a pure reassignment on the active view, so background
// checks keep accumulating in the ledger while another one is shown.
type watchModel struct {
	app     *app
	events  <-chan domain.ProgressEvent
	spinner spinner.Model
	checks  []domain.Check
	closed  bool
}

func newWatchModel(app *app, events <-chan domain.ProgressEvent) watchModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	m := watchModel{
		app:     app,
		events:  events,
		spinner: s,
		checks:  app.service.Ledger().List(),
	}
	m.ensureFocus()

	return m
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), m.scheduleReconcile())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.focusNext(1)
			return m, nil
		case "shift+tab":
			m.focusNext(-1)
			return m, nil
		}
		return m, nil
	case progressMsg:
		if err := m.app.service.Router().Route(msg.event); err != nil {
			m.app.log.Debugf("route progress event: %v", err)
		}
		m.checks = m.app.service.Ledger().List()
		m.ensureFocus()
		return m, m.waitForEvent()
	case sourceClosedMsg:
		m.closed = true
		return m, tea.Quit
	case reconcileDoneMsg:
		m.checks = m.app.service.Ledger().List()
		return m, m.scheduleReconcile()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m watchModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("Watching checks")
	header := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
		Render(fmt.Sprintf("checks: %d  (tab: switch focus, q: quit)", len(m.checks)))

	lines := []string{title, header}

	focused := m.app.service.View().Focused()
	for _, check := range m.checks {
		lines = append(lines, m.checkLine(check, check.ID == focused))
	}

	if detail, ok := m.app.service.View().CurrentView(); ok {
		lines = append(lines, "", m.detailView(detail))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m watchModel) checkLine(check domain.Check, focused bool) string {
	marker := "  "
	if focused {
		marker = "> "
	}

	status := string(check.Status)
	if !check.Status.Terminal() {
		status = m.spinner.View() + status
	}

	line := fmt.Sprintf("%s%s  %-12s refs:%d errors:%d warnings:%d unverified:%d",
		marker, check.ID, status, check.TotalRefs, check.ErrorsCount, check.WarningsCount, check.UnverifiedCount)

	if focused {
		return lipgloss.NewStyle().Bold(true).Render(line)
	}

	return line
}

func (m watchModel) detailView(check domain.Check) string {
	title := check.Title
	if title == "" {
		title = check.Source
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).
			Render(fmt.Sprintf("%s (%s)", title, check.ID)),
	}

	shown := check.Results
	if len(shown) > 10 {
		shown = shown[len(shown)-10:]
	}
	for _, result := range shown {
		lines = append(lines, fmt.Sprintf("  %-10s %s", result.Verdict, result.Reference))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// ensureFocus keeps something focused once checks exist; it never
// steals focus from an already focused check.
func (m *watchModel) ensureFocus() {
	view := m.app.service.View()
	if view.Focused() != "" || len(m.checks) == 0 {
		return
	}

	view.Focus(m.checks[0].ID)
}

func (m *watchModel) focusNext(step int) {
	if len(m.checks) == 0 {
		return
	}

	view := m.app.service.View()
	current := view.Focused()

	index := 0
	for i, check := range m.checks {
		if check.ID == current {
			index = (i + step + len(m.checks)) % len(m.checks)
			break
		}
	}

	view.Focus(m.checks[index].ID)
}

func (m watchModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return sourceClosedMsg{}
		}
		return progressMsg{event: event}
	}
}

func (m watchModel) scheduleReconcile() tea.Cmd {
	interval := 5 * m.app.pollInterval
	return tea.Tick(interval, func(time.Time) tea.Msg {
		_ = m.app.service.ReconcileStale(context.Background())
		return reconcileDoneMsg{}
	})
}
