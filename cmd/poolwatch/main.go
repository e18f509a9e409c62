package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/darshan-rambhia/poolwatch/internal/alerter"
	"github.com/darshan-rambhia/poolwatch/internal/api"
	"github.com/darshan-rambhia/poolwatch/internal/cache"
	"github.com/darshan-rambhia/poolwatch/internal/collector"
	"github.com/darshan-rambhia/poolwatch/internal/config"
	"github.com/darshan-rambhia/poolwatch/internal/metrics"
	"github.com/darshan-rambhia/poolwatch/internal/notify"
	"github.com/darshan-rambhia/poolwatch/internal/zpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// buildInfo returns version, commit, build time, and VCS details from the
// embedded Go build info. ldflags-injected values take priority; VCS info
// from debug.ReadBuildInfo fills in anything left as default.
func buildInfo() (ver, sha, built, dirty string) {
	ver = version
	sha = commit
	built = buildTime
	dirty = "clean"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if sha == "none" {
				sha = s.Value
			}
		case "vcs.time":
			if built == "unknown" {
				built = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "dirty"
			}
		}
	}

	return
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "poolwatch",
		Short:         "Watch ZFS pool health and post changes to Discord",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.ErrOrStderr(), configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to poolwatch.yaml config file")
	root.SetVersionTemplate(versionText())

	root.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Run zpool status once and print the summary as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd.ErrOrStderr(), configPath)
				if err != nil {
					return err
				}
				if err := check(cmd.Context(), cmd.OutOrStdout(), cfg); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err)
					return err
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprint(cmd.OutOrStdout(), versionText())
			},
		},
	)
	return root
}

func versionText() string {
	ver, sha, built, dirty := buildInfo()
	return fmt.Sprintf("poolwatch %s\n  commit:    %s (%s)\n  built:     %s\n  go:        %s\n  platform:  %s/%s\n",
		ver, sha, dirty, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func loadConfig(stderr io.Writer, path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigFileNotFound) {
			fmt.Fprintf(stderr, "error: %s\n\n", err)
			fmt.Fprintf(stderr, "Copy the example config to get started:\n")
			fmt.Fprintf(stderr, "  cp poolwatch.example.yaml %s\n", path)
		} else {
			fmt.Fprintf(stderr, "error: loading config: %s\n", err)
		}
		return nil, err
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func newCollector(cfg *config.Config, checker collector.Checker) *collector.PoolCollector {
	return collector.NewPoolCollector(
		zpool.NewCommandSource(cfg.ZpoolArgv()),
		checker,
		collector.PoolCollectorConfig{
			Pools:     cfg.PoolNames(),
			ShowSpace: cfg.ShowSpace,
			Interval:  cfg.CheckDelay.Duration,
		},
	)
}

func deliverers(cfg *config.Config) []alerter.Deliverer {
	ds := []alerter.Deliverer{
		notify.NewDeliverer(notify.NewWebhook(cfg.WebhookURL), cfg.MaxRetries, cfg.RetryDelay.Duration, nil),
	}
	if cfg.Ntfy.URL != "" {
		ds = append(ds, notify.NewDeliverer(notify.NewNtfy(cfg.Ntfy.URL, cfg.Ntfy.Topic), cfg.MaxRetries, cfg.RetryDelay.Duration, nil))
	}
	return ds
}

func serve(parent context.Context, cfg *config.Config) error {
	ver, sha, built, dirty := buildInfo()
	slog.Info("starting poolwatch",
		"version", ver,
		"commit", sha,
		"built", built,
		"dirty", dirty,
		"go", runtime.Version(),
		"pools", cfg.Pools,
		"check_delay", cfg.CheckDelay.Duration,
	)

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	c := cache.New()
	ds := deliverers(cfg)
	a := alerter.NewAlerter(c, ds, alerter.Config{Verbose: cfg.Verbose, Extra: cfg.Extra})
	pc := newCollector(cfg, a)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return collector.Run(ctx, pc) })

	if cfg.Webserver {
		server := api.NewServer(cfg.ListenAddr(), c)
		g.Go(func() error { return server.Run(ctx) })
	}
	if cfg.MetricsListen != "" {
		g.Go(func() error { return metrics.Serve(ctx, cfg.MetricsListen) })
	}

	slog.Info("all components started",
		"deliverers", len(ds),
		"webserver", cfg.Webserver,
		"metrics", cfg.MetricsListen != "",
	)

	err := g.Wait()
	var fatal *collector.FatalError
	if errors.As(err, &fatal) {
		slog.Error("fatal error", "error", fatal, "stack", string(fatal.Stack))
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "error", err)
		return err
	}

	slog.Info("poolwatch stopped gracefully")
	return nil
}

func check(ctx context.Context, w io.Writer, cfg *config.Config) error {
	snap, err := newCollector(cfg, nil).Snapshot(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
