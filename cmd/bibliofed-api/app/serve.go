package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bibliofed/bibliofed/internal/api"
	"github.com/bibliofed/bibliofed/internal/providers/seoulseocho"
	"github.com/bibliofed/bibliofed/internal/service"
	"github.com/bibliofed/bibliofed/internal/telemetry"
	"github.com/bibliofed/bibliofed/pkg/config"
	"github.com/bibliofed/bibliofed/pkg/logger"
	"github.com/bibliofed/bibliofed/pkg/registry"
	"github.com/bibliofed/bibliofed/pkg/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolver API server",
	Long: `Start the resolver API server to serve federated catalog queries.

The server requires a configuration file (--config) that specifies which
backend catalog providers to register and all other operational settings.

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const (
	defaultAddress = ":8080"

	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second // Enough for headers and small requests
	serverIdleTimeout      = 60 * time.Second // Keep connections alive for reuse
	// No write timeout: search responses stream for as long as the slowest
	// backend produces results. Unary routes carry their own timeout
	// middleware instead.
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

// buildRegistry assembles the immutable provider registry from the enabled
// providers in the configuration.
func buildRegistry(cfg *config.Config) (*registry.Registry, error) {
	builder := registry.NewBuilder()

	if sc := cfg.Providers.SeoulSeocho; sc != nil && sc.Enabled {
		var opts []seoulseocho.Option
		if sc.BaseURL != "" {
			opts = append(opts, seoulseocho.WithBaseURL(sc.BaseURL))
		}
		if err := builder.Register(seoulseocho.Namespace, seoulseocho.New(opts...)); err != nil {
			return nil, fmt.Errorf("failed to register %s provider: %w", seoulseocho.Namespace, err)
		}
	}

	return builder.Build(), nil
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := viper.GetString("config")
	cfg, err := config.NewConfigLoader().LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.Server.Address
	}
	if address == "" {
		address = defaultAddress
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	logger.Infof("Loaded configuration from %s (%d providers registered)", configPath, reg.Len())

	telemetryProvider, err := telemetry.NewProvider(&telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: versions.GetVersionInfo().Version,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	httpMetrics, err := telemetry.NewHTTPMetrics(telemetryProvider.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create HTTP metrics: %w", err)
	}
	federationMetrics, err := telemetry.NewFederationMetrics(telemetryProvider.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create federation metrics: %w", err)
	}

	svc := service.NewResolver(reg,
		service.WithSearchBuffer(cfg.Server.SearchBuffer),
		service.WithFederationMetrics(federationMetrics),
	)

	handler := api.NewServer(svc,
		api.WithMiddlewares(api.LoggingMiddleware, httpMetrics.Middleware),
		api.WithMetricsHandler(telemetryProvider.Handler()),
	)

	server := &http.Server{
		Addr:        address,
		Handler:     handler,
		ReadTimeout: serverReadTimeout,
		IdleTimeout: serverIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting resolver API server on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down resolver API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Telemetry shutdown failed: %v", err)
	}
	return nil
}
