// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/staranto/showcase/internal/meta"
	"github.com/staranto/showcase/internal/metrics"
	"github.com/staranto/showcase/internal/ui"
)

// BrowseCommandAction is the action handler for the "browse" subcommand. It
// runs the interactive card grid until the user quits.
func BrowseCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "browse") {
		return nil
	}

	rt, err := NewRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Connect(cmd); err != nil {
		return err
	}

	if addr := cmd.String("metrics-addr"); addr != "" {
		srv := serveMetrics(addr, rt.Metrics)
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	return ui.Run(ctx, rt.Service,
		ui.WithTitle(cmd.String("title")),
		ui.WithRecheck(cmd.Duration("recheck")),
	)
}

// serveMetrics exposes the runtime's registry on addr/metrics until the
// returned server is shut down.
func serveMetrics(addr string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Errorf("metrics server on %s failed", addr)
		}
	}()
	log.Debugf("serving metrics on %s", addr)

	return srv
}

// BrowseCommandBuilder constructs the cli.Command for "browse".
func BrowseCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "browse projects interactively",
		UsageText: "showcase browse [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append(NewConnectionFlags("browse"),
			newTldrFlag(),
			NewRecheckFlag("browse"),
			NameSpacedValueChainFlagFromConfigFile("browse", cfg.Source, &cli.StringFlag{
				Name:  "title",
				Usage: "banner title",
				Value: "Projects",
			}),
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address (e.g. :9090)",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("SHOWCASE_METRICS_ADDR"),
				),
			},
		),
		Action: BrowseCommandAction,
	}
}
