package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitMeterProvider installs a Prometheus-backed global MeterProvider with Go
// runtime metrics. It returns the /metrics handler and a shutdown func.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		return nil, nil, fmt.Errorf("start runtime metrics: %w", err)
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// CheckoutMetrics counts completed orders and the revenue they carry.
type CheckoutMetrics struct {
	orders  otelmetric.Int64Counter
	revenue otelmetric.Float64Counter
	items   otelmetric.Int64Histogram
}

func NewCheckoutMetrics(meter otelmetric.Meter) (*CheckoutMetrics, error) {
	orders, err := meter.Int64Counter("storefront.orders.completed",
		otelmetric.WithDescription("Orders created by checkout"),
	)
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Float64Counter("storefront.revenue",
		otelmetric.WithDescription("Sum of completed order totals"),
	)
	if err != nil {
		return nil, err
	}

	items, err := meter.Int64Histogram("storefront.order.items",
		otelmetric.WithDescription("Units purchased per order"),
		otelmetric.WithExplicitBucketBoundaries(1, 2, 5, 10, 25, 50, 100),
	)
	if err != nil {
		return nil, err
	}

	return &CheckoutMetrics{orders: orders, revenue: revenue, items: items}, nil
}

// RecordOrder is a no-op on a nil receiver.
func (m *CheckoutMetrics) RecordOrder(ctx context.Context, source string, total decimal.Decimal, units int) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("source", source))
	m.orders.Add(ctx, 1, attrs)
	m.revenue.Add(ctx, total.InexactFloat64(), attrs)
	m.items.Record(ctx, int64(units), attrs)
}
