package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Inventario/internal/app"
	"Inventario/internal/config"
	"Inventario/internal/gateway"
	"Inventario/pkg/kit"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := opts.logger(cfg)
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	a, err := app.Open(cmd.Context(), cfg, log, app.Options{Registry: reg})
	if err != nil {
		log.Error("open app failed", zap.Error(err))
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = a.Close() }()

	h, err := gateway.NewHandler(a.GatewayDeps(), gateway.HTTPDeps{
		Log:            log,
		Service:        serviceName,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})
	if err != nil {
		return fmt.Errorf("init handler: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kit.RunHTTPServer(ctx, cfg.HTTPAddr, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
