// Package telemetry provides OpenTelemetry metrics for the resolver, exposed
// through a prometheus exporter on the /metrics endpoint.
package telemetry

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "bibliofed-api"
)

// Config represents the telemetry configuration
type Config struct {
	// Enabled controls whether metrics are collected and exposed.
	// When false, no meter provider is initialized and all instrument
	// wrappers become no-ops.
	Enabled bool

	// ServiceName is the name of the service for telemetry identification.
	// Defaults to "bibliofed-api" if not specified.
	ServiceName string

	// ServiceVersion is the version of the service for telemetry
	// identification. Defaults to the application version if not specified.
	ServiceVersion string
}

// serviceName returns the configured service name or the default.
func (c *Config) serviceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}
