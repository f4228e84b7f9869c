package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Provider bundles the meter provider with the prometheus exposition handler
// and a shutdown hook. A nil Provider is valid and means telemetry is
// disabled; all methods are nil-safe.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	handler       http.Handler
}

// NewProvider initializes a meter provider backed by a prometheus registry.
// Returns nil when telemetry is disabled.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.serviceName()),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return &Provider{
		meterProvider: meterProvider,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// MeterProvider returns the underlying meter provider, or nil when telemetry
// is disabled.
func (p *Provider) MeterProvider() metric.MeterProvider {
	if p == nil {
		return nil
	}
	return p.meterProvider
}

// Handler returns the prometheus exposition handler, or nil when telemetry is
// disabled.
func (p *Provider) Handler() http.Handler {
	if p == nil {
		return nil
	}
	return p.handler
}

// Shutdown flushes and stops the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
