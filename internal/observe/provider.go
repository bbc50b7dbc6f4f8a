// Package observe owns the OpenTelemetry meter provider and the metrics the
// scheduler records. Metrics are exported in Prometheus text format.
package observe

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "smartscheduler"

type Config struct {
	Enabled     bool
	ServiceName string
}

// Provider is nil-safe: a nil or disabled provider hands out a Metrics value
// backed by a no-op meter and a handler that answers 404.
type Provider struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *promclient.Registry
	metrics       *Metrics
}

func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		m, err := NewMetrics(noop.NewMeterProvider().Meter(meterName))
		if err != nil {
			return nil, err
		}
		return &Provider{metrics: m}, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	return newProvider(cfg.ServiceName, exporter, registry)
}

// NewProviderWithReader builds a provider around an arbitrary reader. Tests
// use it with a manual reader.
func NewProviderWithReader(serviceName string, reader sdkmetric.Reader) (*Provider, error) {
	return newProvider(serviceName, reader, nil)
}

func newProvider(serviceName string, reader sdkmetric.Reader, registry *promclient.Registry) (*Provider, error) {
	if serviceName == "" {
		serviceName = meterName
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)

	m, err := NewMetrics(mp.Meter(meterName))
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}
	return &Provider{meterProvider: mp, registry: registry, metrics: m}, nil
}

func (p *Provider) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

func (p *Provider) Meter() metric.Meter {
	if p == nil || p.meterProvider == nil {
		return noop.NewMeterProvider().Meter(meterName)
	}
	return p.meterProvider.Meter(meterName)
}

// Handler serves the Prometheus scrape endpoint.
func (p *Provider) Handler() http.Handler {
	if p == nil || p.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Provider) Enabled() bool {
	return p != nil && p.meterProvider != nil
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.meterProvider == nil {
		return nil
	}
	return p.meterProvider.Shutdown(ctx)
}
