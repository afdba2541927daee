package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/nearbite/dataset"
	"github.com/rushteam/nearbite/train"
)

func newTrainCmd(a *app) *cobra.Command {
	var dataPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the recommendation model from a restaurant CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := a.repository(ctx)
			if err != nil {
				return err
			}

			s := a.settings
			tr := &train.Trainer{
				Paths:      s.Data.Paths,
				Repository: repo,
				Rules:      dataset.NewRules(s.Train.DefaultRating, s.Train.DefaultReviewCount),
				KMax:       s.Train.KMax,
			}
			if dataPath != "" {
				tr.Source = dataset.NewCSVSource(dataPath)
			}

			rep, err := tr.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s trained from %s\n", rep.Version, rep.DataSource)
			fmt.Fprintf(out, "  provenance:  %s\n", rep.Provenance)
			fmt.Fprintf(out, "  samples:     %d (skipped %d of %d rows)\n", rep.Samples, len(rep.Skips), rep.Rows)
			fmt.Fprintf(out, "  n_neighbors: %d\n", rep.Neighbors)
			fmt.Fprintf(out, "  repository:  %s\n", repo.Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "training CSV (default: first existing of data.paths)")
	return cmd
}
