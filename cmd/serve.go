package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/internal/runtime"
	"github.com/argos-research/argos/internal/server"
	"github.com/argos-research/argos/internal/turn"
	"github.com/spf13/cobra"
)

func serveCMD(load func() (*config.Config, error)) *cobra.Command {
	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tele, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, runtime.TelemetryOptions{
				ServiceName:    "argos",
				ServiceVersion: version,
				ServeMetrics:   true,
			})
			if err != nil {
				return err
			}
			defer tele.Shutdown(context.Background())

			controller := turn.NewController(*cfg)
			defer controller.Close()

			addr := serveAddr
			if addr == "" {
				addr = cfg.Server.Address
			}
			if addr == "" {
				addr = ":10001"
			}
			e := server.New(cfg.Server, controller, tele.Handler(), nil)
			log.Printf("listening on %s", addr)
			return server.Run(ctx, e, addr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.address or :10001)")
	return serve
}
