// Command orrery serves and inspects heliocentric positions and orbit paths of solar
// system bodies.
package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"latency.space/orrery/config"
	"latency.space/orrery/shared/catalog"
	"latency.space/orrery/shared/ephemeris"
	"latency.space/orrery/shared/logging"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  log.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "orrery",
		Short: "Keplerian ephemeris server for solar system bodies",
		Long: `orrery propagates orbital elements of planets, dwarf planets, asteroids,
comets and interstellar objects, and serves their positions and orbit paths
over HTTP and a websocket frame stream driven by a simulated clock.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./orrery.yaml or $HOME/.orrery/orrery.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("catalog", "", "YAML catalog file replacing the built-in bodies")
	a.v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	a.v.BindPFlag("catalog_file", rootCmd.PersistentFlags().Lookup("catalog"))

	rootCmd.AddCommand(
		serveCmd(a),
		bodiesCmd(a),
		positionCmd(a),
		pathCmd(a),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	if used := a.v.ConfigFileUsed(); used != "" {
		level.Debug(logger).Log("msg", "using config file", "file", used)
	}
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	bodies, source := catalog.Builtin(), "builtin"
	if a.cfg.CatalogFile != "" {
		var err error
		bodies, err = catalog.LoadFile(a.cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		source = a.cfg.CatalogFile
	}
	cat, err := catalog.New(bodies)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	level.Debug(logging.Subsystem(a.logger, "catalog")).Log("msg", "catalog loaded", "source", source, "bodies", cat.Len())
	return cat, nil
}

func (a *app) newEngine(cat *catalog.Catalog, observer ephemeris.Observer) *ephemeris.Engine {
	return ephemeris.NewEngine(cat, ephemeris.Options{
		Workers:     a.cfg.Ephemeris.Workers,
		MaxRadiusAU: a.cfg.Paths.MaxRadiusAU,
		CacheSize:   a.cfg.Ephemeris.CacheSize,
		Logger:      a.logger,
		Observer:    observer,
	})
}
