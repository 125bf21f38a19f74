package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/blockberries/quadgov/app"
	"github.com/blockberries/quadgov/config"
	govgrpc "github.com/blockberries/quadgov/grpc"
	"github.com/blockberries/quadgov/logging"
	"github.com/blockberries/quadgov/types"
)

const (
	standaloneChainID = "quadgov-standalone"
	shutdownTimeout   = 5 * time.Second
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the governance application over gRPC",
		Long: `Serve the governance application to a block engine over gRPC and expose
Prometheus metrics over HTTP.

With --standalone the genesis handshake is performed locally from the
genesis file, so queries and simulations work without an engine.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runStart(ctx, cfg, logging.New(cfg.LogLevel, os.Stderr), nil)
		},
	}

	cmd.Flags().String("grpc-addr", config.DefaultGRPCAddr, "gRPC listen address")
	cmd.Flags().String("metrics-addr", config.DefaultMetricsAddr, "Prometheus listen address (empty disables)")
	cmd.Flags().String("genesis-file", config.GenesisFileName, "Genesis file, relative to --home unless absolute")
	cmd.Flags().Bool("standalone", false, "Perform the genesis handshake locally")

	return cmd
}

// runStart serves until ctx is done. If ready is non-nil it receives
// the bound gRPC address once the listener is up.
func runStart(ctx context.Context, cfg config.Config, logger *slog.Logger, ready chan<- string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	govApp := app.New(app.WithLogger(logger), app.WithRegisterer(reg))
	gs := govgrpc.NewGRPCServer(govApp, logger)

	if cfg.Standalone {
		if err := standaloneGenesis(ctx, gs, cfg.GenesisPath()); err != nil {
			return err
		}
		logger.Info("standalone genesis applied", "genesis", cfg.GenesisPath())
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	var metricsSrv *http.Server
	metricsErr := make(chan error, 1)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErr <- err
			}
		}()
		logger.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
	}

	logger.Info("quadgovd started",
		"version", Version,
		"grpc_addr", lis.Addr().String(),
		"standalone", cfg.Standalone)
	if ready != nil {
		ready <- lis.Addr().String()
	}

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()
	serveErr := make(chan error, 1)
	go func() { serveErr <- gs.Serve(serveCtx, lis) }()

	select {
	case err = <-serveErr:
	case err = <-metricsErr:
		err = fmt.Errorf("metrics server: %w", err)
		stop()
		<-serveErr
	case <-ctx.Done():
		err = <-serveErr
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := metricsSrv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("metrics shutdown failed", "error", shutdownErr)
		}
	}

	logger.Info("quadgovd stopped", "height", govApp.Height())
	return err
}

// standaloneGenesis initializes the application from the genesis file
// through the lifecycle guard, exactly as an engine handshake would.
func standaloneGenesis(ctx context.Context, gs *govgrpc.GRPCServer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read genesis: %w", err)
	}
	if _, err := app.ParseGenesisState(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	_, err = gs.Server().Handshake(ctx, types.HandshakeRequest{
		Genesis: &types.GenesisDoc{
			ChainID:       standaloneChainID,
			InitialHeight: 1,
			AppState:      data,
		},
	})
	if err != nil {
		return fmt.Errorf("standalone handshake: %w", err)
	}
	return nil
}
