// SPDX-License-Identifier: MIT

// Command confd is the configuration sidecar: it loads and validates the
// training configuration document, watches it for changes, and serves the
// effective configuration over HTTP for the training engine and operators.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ivadomed/ivadoconf/internal/api"
	"github.com/ivadomed/ivadoconf/internal/config"
	"github.com/ivadomed/ivadoconf/internal/log"
	"github.com/ivadomed/ivadoconf/internal/version"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to the training configuration document (JSON or YAML)")
		listen     = flag.String("listen", "", "API listen address (overrides IVADO_LISTEN)")
		logLevel   = flag.String("log-level", "", "log level (overrides IVADO_LOG_LEVEL)")
		logFormat  = flag.String("log-format", "json", "log format: json or console")
		showVer    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("ivadoconf-confd %s (%s, %s)\n", version.Version, version.Commit, version.Date)
		return
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: ivadoconf-confd -config <config.json> [-listen :8675]")
		os.Exit(2)
	}

	log.Configure(log.Config{Level: *logLevel, Format: *logFormat, Service: "ivadoconf-confd"})
	logger := log.WithComponent("main")

	holder, err := config.NewConfigHolder(*configPath, version.Version)
	if err != nil {
		logger.Fatal().Err(err).Str(log.FieldConfigPath, *configPath).Msg("failed to load configuration")
	}

	addr := holder.Get().APIListenAddr
	if *listen != "" {
		addr = *listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := holder.StartWatcher(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start config watcher")
	}

	srv := api.NewServer(holder, addr, version.Version)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	g.Go(func() error {
		// Surface restart-required reloads prominently; the training engine
		// polls /api/v1/snapshot and cannot apply those on its own.
		ch := holder.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return nil
			case summary := <-ch:
				if summary.RestartRequired {
					logger.Warn().
						Strs("changed_fields", summary.ChangedFields).
						Msg("configuration change requires an engine restart")
				}
			}
		}
	})

	logger.Info().
		Str("version", version.Version).
		Str(log.FieldConfigPath, *configPath).
		Str("addr", addr).
		Msg("confd started")

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("confd terminated")
	}
	logger.Info().Msg("confd stopped")
}
