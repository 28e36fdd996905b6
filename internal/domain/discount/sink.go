package discount

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of a Diagnostic.
type Level int8

const (
	LevelWarn Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "warn"
}

// Reason classifies why a Diagnostic was emitted.
type Reason string

const (
	ReasonNoEligibleLines  Reason = "no_eligible_lines"
	ReasonInvalidConfig    Reason = "invalid_config"
	ReasonNoApplicableTier Reason = "no_applicable_tier"
)

// Diagnostic is an observational note about a resolution pass. Diagnostics
// never change the Result.
type Diagnostic struct {
	Level     Level
	Reason    Reason
	Message   string
	LineID    string
	ProductID string
	// Detail carries extra context, such as why tier data was unreadable.
	Detail string
}

// Sink receives diagnostics. Implementations must be safe for concurrent use
// when the engine runs with more than one worker.
type Sink interface {
	Report(ctx context.Context, d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, d Diagnostic)

// Report calls f(ctx, d).
func (f SinkFunc) Report(ctx context.Context, d Diagnostic) { f(ctx, d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(context.Context, Diagnostic) {})

// Tee fans each diagnostic out to all sinks in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		for _, s := range sinks {
			s.Report(ctx, d)
		}
	})
}

// ZapSink writes diagnostics to a zap logger.
type ZapSink struct {
	lg *zap.Logger
}

var _ Sink = (*ZapSink)(nil)

// NewZapSink returns a Sink logging to lg. With a nil lg the logger is taken
// from the context on every report (see zctx).
func NewZapSink(lg *zap.Logger) *ZapSink {
	return &ZapSink{lg: lg}
}

// Report logs d at the matching zap level.
func (s *ZapSink) Report(ctx context.Context, d Diagnostic) {
	lg := s.lg
	if lg == nil {
		lg = zctx.From(ctx)
	}

	lvl := zapcore.WarnLevel
	if d.Level == LevelError {
		lvl = zapcore.ErrorLevel
	}

	fields := []zap.Field{zap.String("reason", string(d.Reason))}
	if d.LineID != "" {
		fields = append(fields, zap.String("line_id", d.LineID))
	}
	if d.ProductID != "" {
		fields = append(fields, zap.String("product_id", d.ProductID))
	}
	if d.Detail != "" {
		fields = append(fields, zap.String("detail", d.Detail))
	}
	lg.Log(lvl, d.Message, fields...)
}
