package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/engine"
	"github.com/rushteam/nearbite/geocode"
	"github.com/rushteam/nearbite/pipeline"
)

type recommendFlags struct {
	place    string
	lat, lon float64
	topK     int
	maxKM    float64
	where    string
	pipeline string
	here     bool
	asJSON   bool
}

func newRecommendCmd(a *app) *cobra.Command {
	f := &recommendFlags{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend restaurants near a coordinate or place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := a.settings
			if !cmd.Flags().Changed("top-k") {
				f.topK = s.Recommend.TopK
			}
			if !cmd.Flags().Changed("max-km") {
				f.maxKM = s.Recommend.MaxDistanceKM
			}
			if f.pipeline == "" {
				f.pipeline = s.Recommend.Pipeline
			}
			hasCoord := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")
			sources := 0
			for _, set := range []bool{f.place != "", hasCoord, f.here} {
				if set {
					sources++
				}
			}
			if sources != 1 {
				return errors.New("exactly one of --place, --lat/--lon or --here is required")
			}
			if f.here && (!s.Geocode.Online || s.Geocode.IPURL == "") {
				return errors.New("--here needs geocode.online and geocode.ip_url")
			}

			repo, err := a.repository(ctx)
			if err != nil {
				return err
			}
			model, err := repo.Load(ctx)
			if err != nil {
				return err
			}

			opts := []engine.Option{
				engine.WithPlaceholders(s.Recommend.Placeholders),
				engine.WithGeocoder(a.geocoder()),
				engine.WithMaxDistanceKM(f.maxKM),
			}
			if f.pipeline != "" {
				pcfg, err := pipeline.LoadFromYAML(f.pipeline)
				if err != nil {
					return fmt.Errorf("load pipeline %s: %w", f.pipeline, err)
				}
				opts = append(opts, engine.WithPipelineConfig(pcfg))
			}
			eng, err := engine.New(model, opts...)
			if err != nil {
				return err
			}

			loc := core.Coordinate{Latitude: f.lat, Longitude: f.lon}
			if f.here {
				here, err := a.ipLocator().Locate(ctx)
				if err != nil {
					return err
				}
				loc = here.Coordinate
				if !f.asJSON {
					fmt.Fprintf(cmd.OutOrStdout(), "current location %s -> (%.4f, %.4f) via %s\n",
						here.Address, loc.Latitude, loc.Longitude, here.Source)
				}
			}
			if f.place != "" {
				resolved, err := eng.ResolvePlace(ctx, f.place)
				if err != nil {
					return err
				}
				loc = resolved.Coordinate
				if !f.asJSON {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> (%.4f, %.4f) via %s\n",
						f.place, loc.Latitude, loc.Longitude, resolved.Source)
				}
			}

			recs, err := eng.Query(ctx, engine.Request{
				Location:      loc,
				TopK:          f.topK,
				MaxDistanceKM: f.maxKM,
				Where:         f.where,
			})
			if err != nil {
				return err
			}
			if f.asJSON {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			return writeTable(cmd.OutOrStdout(), recs, f.maxKM)
		},
	}

	cmd.Flags().StringVar(&f.place, "place", "", "place name, e.g. \"Kota Malang\"")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude")
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "number of restaurants (default recommend.top_k)")
	cmd.Flags().Float64Var(&f.maxKM, "max-km", 0, "maximum great-circle distance in km (default recommend.max_distance_km)")
	cmd.Flags().StringVar(&f.where, "where", "", "CEL filter, e.g. 'item.rating >= 4.5'")
	cmd.Flags().StringVar(&f.pipeline, "pipeline", "", "node chain YAML (default recommend.pipeline)")
	cmd.Flags().BoolVar(&f.here, "here", false, "locate by public IP (city-level accuracy)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON")
	return cmd
}

// geocoder 组合内置地名表与（可选的）Nominatim
func (a *app) geocoder() geocode.Geocoder {
	gz := geocode.NewGazetteer(geocode.MalangPlaces)
	g := a.settings.Geocode
	if !g.Online {
		return geocode.NewChain(gz)
	}
	return geocode.NewChain(gz, geocode.NewNominatim(geocode.NominatimConfig{
		BaseURL:         g.URL,
		UserAgent:       g.UserAgent,
		Region:          g.Region,
		Timeout:         g.Timeout,
		RateLimit:       g.RateLimit,
		BreakerFailures: g.BreakerFailures,
		BreakerTimeout:  g.BreakerTimeout,
		Rewrite:         gz.Query,
	}))
}

func (a *app) ipLocator() *geocode.IPLocator {
	g := a.settings.Geocode
	return geocode.NewIPLocator(geocode.IPLocatorConfig{
		BaseURL:         g.IPURL,
		Timeout:         g.Timeout,
		RateLimit:       g.RateLimit,
		BreakerFailures: g.BreakerFailures,
		BreakerTimeout:  g.BreakerTimeout,
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, recs []engine.Recommendation, maxKM float64) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintf(w, "no restaurants within %.2f km\n", maxKM)
		return err
	}
	t := newTable(w, "#", "name", "rating", "reviews", "dist km", "score", "cuisine", "area")
	for i, r := range recs {
		t.add(
			strconv.Itoa(i+1),
			r.Name,
			strconv.FormatFloat(r.Rating, 'f', 1, 64),
			strconv.FormatInt(r.ReviewCount, 10),
			strconv.FormatFloat(r.DistanceKM, 'f', 2, 64),
			strconv.FormatFloat(r.WeightedScore, 'f', 3, 64),
			r.Cuisine,
			r.Area,
		)
	}
	return t.render()
}
