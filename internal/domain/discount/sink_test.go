package discount

import (
	"context"
	"testing"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEngine(NewZapSink(zap.New(core)), Options{})

	e.Run(context.Background(), []CartLine{
		line("l1", 5, newProduct("p1", `"not-an-array"`)),
		line("l2", 1, newProduct("p2", standardTiers)),
	})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Invalid metafield format for product p1", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "invalid_config", fields["reason"])
	assert.Equal(t, "l1", fields["line_id"])
	assert.Equal(t, "p1", fields["product_id"])
	assert.Contains(t, fields["detail"], "expected array")

	assert.Equal(t, "No discount applicable for product p2", entries[1].Message)
	assert.NotContains(t, entries[1].ContextMap(), "detail")
}

func TestZapSink_ErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewEngine(NewZapSink(zap.New(core)), Options{}).Run(context.Background(), nil)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "No cart lines qualify for volume discount.", entries[0].Message)
}

func TestZapSink_LoggerFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := zctx.Base(context.Background(), zap.New(core))

	NewZapSink(nil).Report(ctx, Diagnostic{Level: LevelWarn, Reason: ReasonNoApplicableTier, Message: "hello"})

	assert.Equal(t, 1, logs.FilterMessage("hello").Len())
}

func TestTee(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	s := Tee(a, b, Discard)

	s.Report(context.Background(), Diagnostic{Reason: ReasonInvalidConfig})

	assert.Equal(t, []Reason{ReasonInvalidConfig}, a.reasons())
	assert.Equal(t, []Reason{ReasonInvalidConfig}, b.reasons())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
}
