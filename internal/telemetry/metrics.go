package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// FederationMetricsMeterName is the name used for the federation
	// metrics meter
	FederationMetricsMeterName = "github.com/bibliofed/bibliofed/federation"
)

// FederationMetrics holds the OpenTelemetry instruments for the federated
// listing and search operations.
type FederationMetrics struct {
	providerCallDuration metric.Float64Histogram
	entitiesStreamed     metric.Int64Counter
	librariesListed      metric.Int64Gauge
}

// NewFederationMetrics creates a new FederationMetrics instance with the
// given meter provider. If provider is nil, it returns nil (no-op metrics).
func NewFederationMetrics(provider metric.MeterProvider) (*FederationMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(FederationMetricsMeterName)

	providerCallDuration, err := meter.Float64Histogram(
		"bibliofed_provider_call_duration_seconds",
		metric.WithDescription("Duration of backend provider calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	entitiesStreamed, err := meter.Int64Counter(
		"bibliofed_search_entities_total",
		metric.WithDescription("Total number of search entities streamed per provider"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	librariesListed, err := meter.Int64Gauge(
		"bibliofed_libraries_total",
		metric.WithDescription("Number of libraries reported by each provider on the last listing"),
		metric.WithUnit("{library}"),
	)
	if err != nil {
		return nil, err
	}

	return &FederationMetrics{
		providerCallDuration: providerCallDuration,
		entitiesStreamed:     entitiesStreamed,
		librariesListed:      librariesListed,
	}, nil
}

// RecordProviderCall records the duration and outcome of one backend call.
func (m *FederationMetrics) RecordProviderCall(ctx context.Context, namespace, operation string, d time.Duration, failed bool) {
	if m == nil || m.providerCallDuration == nil {
		return
	}

	m.providerCallDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("operation", operation),
		attribute.Bool("failed", failed),
	))
}

// RecordEntitiesStreamed adds the number of entities one provider contributed
// to a search stream.
func (m *FederationMetrics) RecordEntitiesStreamed(ctx context.Context, namespace string, count int64) {
	if m == nil || m.entitiesStreamed == nil {
		return
	}

	m.entitiesStreamed.Add(ctx, count, metric.WithAttributes(
		attribute.String("namespace", namespace),
	))
}

// RecordLibrariesListed records how many libraries one provider reported.
func (m *FederationMetrics) RecordLibrariesListed(ctx context.Context, namespace string, count int64) {
	if m == nil || m.librariesListed == nil {
		return
	}

	m.librariesListed.Record(ctx, count, metric.WithAttributes(
		attribute.String("namespace", namespace),
	))
}
