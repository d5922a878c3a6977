package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/assetgraph/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// Enabled turns on metric export.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment.
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns disabled metrics with development endpoints.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName: serviceName,
		Environment: "development",
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// When the config is disabled it installs nothing and returns a noop shutdown.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (ShutdownFunc, error) {
	if !config.Enabled {
		return noopShutdown, nil
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields(
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp.Shutdown, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded while building graphs.
type Metrics struct {
	nodeVisits    metric.Int64Counter
	nodeDuration  metric.Float64Histogram
	performTotal  metric.Int64Counter
	performLength metric.Float64Histogram
	errorTotal    metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	nodeVisits, err := meter.Int64Counter("assetgraph.node.visits",
		metric.WithDescription("Node operations invoked, by kind, phase and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating assetgraph.node.visits counter: %w", err)
	}

	nodeDuration, err := meter.Float64Histogram("assetgraph.node.duration",
		metric.WithDescription("Duration of node operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating assetgraph.node.duration histogram: %w", err)
	}

	performTotal, err := meter.Int64Counter("assetgraph.perform.total",
		metric.WithDescription("Perform calls by target and final phase"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating assetgraph.perform.total counter: %w", err)
	}

	performLength, err := meter.Float64Histogram("assetgraph.perform.duration",
		metric.WithDescription("Duration of perform calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating assetgraph.perform.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("assetgraph.error.total",
		metric.WithDescription("Node errors by code and kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating assetgraph.error.total counter: %w", err)
	}

	return &Metrics{
		nodeVisits:    nodeVisits,
		nodeDuration:  nodeDuration,
		performTotal:  performTotal,
		performLength: performLength,
		errorTotal:    errorTotal,
	}, nil
}

// RecordNodeVisit records one node operation.
func (m *Metrics) RecordNodeVisit(ctx context.Context, kind, phase, status string, duration time.Duration) {
	m.nodeVisits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("phase", phase),
		attribute.String("status", status),
	))
	m.nodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("phase", phase),
	))
}

// RecordPerform records a finished perform call.
func (m *Metrics) RecordPerform(ctx context.Context, target, phase string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("phase", phase),
	)
	m.performTotal.Add(ctx, 1, attrs)
	m.performLength.Record(ctx, duration.Seconds(), attrs)
}

// RecordError records a node error by code and node kind.
func (m *Metrics) RecordError(ctx context.Context, code, kind string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("kind", kind),
	))
}
