package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/refcheck-dev/refcheck/internal/ports"
	"github.com/spf13/cobra"
)

func newCheckCmd(app *app) *cobra.Command {
	var title string
	var watch bool

	cmd := &cobra.Command{
		Use:   "check <source> [source...]",
		Short: "Submit one or more documents for reference verification",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.service.RefreshLocal(cmd.Context()); err != nil {
				app.log.Debugf("load persisted history: %v", err)
			}

			for _, source := range args {
				submission := ports.Submission{
					Title:  submissionTitle(title, source, len(args)),
					Source: source,
				}

				sessionID, checkID, err := app.service.StartCheck(cmd.Context(), submission)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "started check %s (session %s) for %s\n", checkID, sessionID, source)
			}

			if watch {
				return runWatch(cmd, app)
			}

			return app.service.Persist(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Document title (single submission only)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Watch progress after submitting")

	return cmd
}

func submissionTitle(flagTitle, source string, submissions int) string {
	if flagTitle != "" && submissions == 1 {
		return flagTitle
	}

	return filepath.Base(source)
}
