package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch live and recent checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.service.RefreshLocal(cmd.Context()); err != nil {
				app.log.Debugf("load persisted history: %v", err)
			}
			if err := app.service.RefreshRemote(cmd.Context()); err != nil {
				app.log.Warnf("refresh from backend: %v", err)
			}

			return runWatch(cmd, app)
		},
	}
}

func runWatch(cmd *cobra.Command, app *app) error {
	events, err := app.source.Subscribe(cmd.Context())
	if err != nil {
		return fmt.Errorf("subscribe to progress events: %w", err)
	}

	p := tea.NewProgram(
		newWatchModel(app, events),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithContext(cmd.Context()),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run watch view: %w", err)
	}

	return app.service.Persist(cmd.Context())
}
