package cmd

import (
	"fmt"

	"github.com/refcheck-dev/refcheck/internal/domain"
	"github.com/spf13/cobra"
)

func newCancelCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <check-id>",
		Short: "Stop a running check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.CheckID(args[0])

			if err := app.service.Cancel(cmd.Context(), id); err != nil {
				return err
			}
			if err := app.service.Persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cancelled check %s\n", id)
			return nil
		},
	}
}
