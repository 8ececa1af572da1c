package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seo-optimizer/geo/analyzer"
	"github.com/seo-optimizer/geo/config"
	"github.com/seo-optimizer/geo/judge"
	"github.com/seo-optimizer/geo/logging"
	"github.com/seo-optimizer/geo/ranking"
)

// service is the part of the analyzer the commands use.
type service interface {
	Analyze(ctx context.Context, url string) (*analyzer.SiteAnalysis, error)
	Compare(ctx context.Context, url string, opts analyzer.CompareOptions) (*ranking.Report, error)
	Personas() []judge.Persona
	Shutdown(ctx context.Context) error
}

type builder func(ctx context.Context, cfg *config.Config) (service, error)

func buildService(ctx context.Context, cfg *config.Config) (service, error) {
	return analyzer.Build(ctx, cfg)
}

type globals struct {
	cfgFile   string
	colorMode string
	json      bool
	timeout   time.Duration
	verbose   bool
}

func newRootCmd(build builder) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "geoctl",
		Short: "Generative engine optimization analysis CLI",
		Long: `geoctl asks a panel of LLM judges how likely a page is to be cited by
generative search engines, and ranks it against its competitors.

Example usage:
  geoctl analyze https://example.com
  geoctl compete https://example.com -c https://rival.com -c https://other.com
  geoctl compete https://example.com --max 3 --json
  geoctl personas`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.cfgFile, "config", "", "YAML config file (overrides GEO_CONFIG)")
	root.PersistentFlags().StringVar(&g.colorMode, "color", "auto", "color output: auto, always or never")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "output as JSON")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 5*time.Minute, "overall command timeout")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newAnalyzeCmd(g, build),
		newCompeteCmd(g, build),
		newPersonasCmd(g, build),
	)
	return root
}

// setup loads the configuration and builds the service. The returned cleanup
// must be called once the command is done.
func (g *globals) setup(cmd *cobra.Command, build builder) (service, *printer, context.Context, func(), error) {
	mode, err := parseColorMode(g.colorMode)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	p := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), resolveColors(mode))

	config.LoadEnv()
	if g.cfgFile != "" {
		if err := os.Setenv("GEO_CONFIG", g.cfgFile); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	level := "warn"
	if g.verbose {
		level = "debug"
	}
	if err := logging.InitWriter(level, cmd.ErrOrStderr()); err != nil {
		return nil, nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	svc, err := build(ctx, cfg)
	if err != nil {
		cancel()
		return nil, nil, nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}

	cleanup := func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := svc.Shutdown(shutdownCtx); err != nil {
			p.Warning("shutdown: %v", err)
		}
		cancel()
	}
	return svc, p, ctx, cleanup, nil
}
