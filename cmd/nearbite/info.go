package main

import (
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show metadata of the current model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := a.repository(ctx)
			if err != nil {
				return err
			}
			model, err := repo.Load(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), model.Info)
		},
	}
}
