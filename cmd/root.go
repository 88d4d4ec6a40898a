package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "refcheck",
		Short:         "refcheck: run and track document reference checks",
		Long:          "refcheck submits documents to a reference-verification backend, watches several checks run concurrently, and keeps a locally persisted history reconciled with backend state.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newCheckCmd(app),
		newWatchCmd(app),
		newHistoryCmd(app),
		newCancelCmd(app),
	)

	return rootCmd
}
