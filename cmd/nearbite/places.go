package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/nearbite/geocode"
)

func newPlacesCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "places",
		Short: "List built-in place names usable with --place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd.OutOrStdout(), "place", "query", "coordinates")
			for _, p := range geocode.NewGazetteer(geocode.MalangPlaces).Places() {
				coord := "online lookup"
				if p.Center != nil {
					coord = fmt.Sprintf("%.4f, %.4f", p.Center.Latitude, p.Center.Longitude)
				}
				t.add(p.Name, p.Query, coord)
			}
			return t.render()
		},
	}
}
