// Package telemetry records discount resolution metrics with OpenTelemetry.
package telemetry

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/volume-discount/internal/domain/discount"
)

const meterName = "github.com/xenking/volume-discount"

// Recorder counts resolution results, produced instructions and
// diagnostics. It doubles as a discount.Sink.
type Recorder struct {
	results      metric.Int64Counter
	instructions metric.Int64Counter
	diagnostics  metric.Int64Counter
}

var _ discount.Sink = (*Recorder)(nil)

// NewRecorder creates the counters on a meter obtained from mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(meterName)

	results, err := meter.Int64Counter("discount.results",
		metric.WithDescription("Resolved carts by application strategy"),
		metric.WithUnit("{cart}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "results counter")
	}
	instructions, err := meter.Int64Counter("discount.instructions",
		metric.WithDescription("Discount instructions produced"),
		metric.WithUnit("{instruction}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "instructions counter")
	}
	diagnostics, err := meter.Int64Counter("discount.diagnostics",
		metric.WithDescription("Diagnostics emitted during resolution by reason"),
		metric.WithUnit("{diagnostic}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "diagnostics counter")
	}

	return &Recorder{
		results:      results,
		instructions: instructions,
		diagnostics:  diagnostics,
	}, nil
}

// Report counts d by reason.
func (r *Recorder) Report(ctx context.Context, d discount.Diagnostic) {
	r.diagnostics.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", string(d.Reason)),
		attribute.String("level", d.Level.String()),
	))
}

// RecordResult counts one resolved cart and its instructions.
func (r *Recorder) RecordResult(ctx context.Context, res discount.Result) {
	strategy := metric.WithAttributes(attribute.String("strategy", string(res.Strategy)))
	r.results.Add(ctx, 1, strategy)
	if n := len(res.Discounts); n > 0 {
		r.instructions.Add(ctx, int64(n))
	}
}
