package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	historyadapter "github.com/refcheck-dev/refcheck/internal/adapters/render/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var asJSON bool
	var showResults bool
	var remote bool
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the reconciled check history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.service.RefreshLocal(cmd.Context()); err != nil {
				app.log.Debugf("load persisted history: %v", err)
			}

			if remote {
				if err := app.service.RefreshRemote(cmd.Context()); err != nil {
					app.log.Warnf("refresh from backend: %v", err)
				}
				if err := app.service.ReconcileStale(cmd.Context()); err != nil {
					return err
				}
				if err := app.service.Persist(cmd.Context()); err != nil {
					return err
				}
			}

			checks := app.service.Ledger().List()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(checks)
			}

			rendered, err := app.historyRenderer(checks, historyadapter.RenderOptions{
				Now:         app.now(),
				StaleAfter:  staleAfter,
				ShowResults: showResults,
			})
			if err != nil {
				return fmt.Errorf("render history: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&showResults, "results", false, "Expand per-reference results of finished checks")
	cmd.Flags().BoolVar(&remote, "remote", true, "Reconcile against the backend before rendering")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 30*time.Second, "Mark non-terminal entries older than this as stale")

	return cmd
}
