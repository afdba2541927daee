package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/nearbite/artifact"
	"github.com/rushteam/nearbite/core"
	"github.com/rushteam/nearbite/logging"
	"github.com/rushteam/nearbite/settings"
	"github.com/rushteam/nearbite/store"
)

// app 是各子命令共享的运行时状态
type app struct {
	cfgFile string
	verbose bool

	settings *settings.Settings
	closers  []func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "nearbite",
		Short: "Nearby restaurant recommender for Malang",
		Long: `nearbite trains a nearest-neighbour model over a restaurant table and
recommends restaurants near a coordinate or a named place.

Example usage:
  nearbite train                             # train from the first data file found
  nearbite recommend --place "Kota Malang"   # recommend near a known place
  nearbite recommend --lat -7.97 --lon 112.63 --max-km 5
  nearbite places                            # list built-in place names
  nearbite info                              # show the current model`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default $NEARBITE_CONFIG)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newTrainCmd(a),
		newRecommendCmd(a),
		newPlacesCmd(a),
		newInfoCmd(a),
	)
	return root
}

func (a *app) init() error {
	s, err := settings.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		s.Logging.Level = "debug"
	}
	logging.Init(s.Logging)
	a.settings = s
	return nil
}

func (a *app) close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// repository 按配置创建模型产物后端
func (a *app) repository(ctx context.Context) (artifact.Repository, error) {
	m := a.settings.Model
	switch m.Backend {
	case settings.BackendRedis:
		st, err := store.NewRedisStore(ctx, m.RedisAddr, m.RedisDB)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleArtifact, core.ErrorCodeModelNotLoaded, "connect redis", err)
		}
		a.closers = append(a.closers, st.Close)
		return artifact.NewStoreRepository(st, m.RedisPrefix), nil
	case settings.BackendFile, "":
		repo := artifact.NewFileRepository(m.Dir)
		repo.Keep = m.Keep
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", m.Backend)
	}
}
