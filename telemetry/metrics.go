package telemetry

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName scopes instruments registered by this package
const MeterName = "github.com/lixenwraith/vi-drive/telemetry"

// Metrics publishes tick counters and speed to OpenTelemetry
type Metrics struct {
	ticks    metric.Int64Counter
	respawns metric.Int64Counter
	speed    metric.Float64Histogram
	locked   metric.Int64Counter
}

// NewMetrics registers instruments on m; nil uses the global provider
func NewMetrics(m metric.Meter) (*Metrics, error) {
	if m == nil {
		m = otel.Meter(MeterName)
	}

	var err error
	mt := &Metrics{}
	mt.ticks, err = m.Int64Counter(
		"vidrive.ticks",
		metric.WithDescription("Simulation ticks processed"),
	)
	if err != nil {
		return nil, err
	}
	mt.respawns, err = m.Int64Counter(
		"vidrive.respawns",
		metric.WithDescription("Vehicle resets by reason"),
	)
	if err != nil {
		return nil, err
	}
	mt.locked, err = m.Int64Counter(
		"vidrive.locked_ticks",
		metric.WithDescription("Ticks spent in the post-respawn lock window"),
	)
	if err != nil {
		return nil, err
	}
	mt.speed, err = m.Float64Histogram(
		"vidrive.speed",
		metric.WithDescription("Horizontal vehicle speed"),
		metric.WithUnit("m/s"),
	)
	if err != nil {
		return nil, err
	}
	return mt, nil
}

// Write records one frame
func (m *Metrics) Write(f Frame) error {
	ctx := context.Background()
	m.ticks.Add(ctx, 1)
	if f.Locked {
		m.locked.Add(ctx, 1)
	}
	if f.Respawn != "" {
		m.respawns.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", f.Respawn)))
	}
	m.speed.Record(ctx, math.Hypot(f.Velocity[0], f.Velocity[2]))
	return nil
}

func (m *Metrics) Close() error {
	return nil
}
