package tracer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTelUsesGlobalProvider(t *testing.T) {
	tr := NewOTel()
	require.NotNil(t, tr)

	// The global provider defaults to noop, so the full span lifecycle
	// must run without panicking even when nothing is exporting.
	ctx, span := tr.Start(context.Background(), SpanLookup,
		String(AttrCourseCode, "CS204"),
	)
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttributes(Bool(AttrFound, true))
	span.AddEvent("registry fallthrough", String(AttrSourceID, "primary"))
	span.End(errors.New("lookup failed"))
}

func TestToOTelAttributes(t *testing.T) {
	converted := toOTelAttributes([]Attribute{
		String("code", "CS204"),
		Bool("hit", true),
		Int("count", 3),
		Int64("rows", 42),
		Float64("score", 2.5),
		Duration("elapsed", 1500*time.Millisecond),
		{Key: "dropped", Value: struct{}{}},
	})

	require.Len(t, converted, 6, "unsupported value types are dropped")
	assert.Equal(t, "CS204", converted[0].Value.AsString())
	assert.True(t, converted[1].Value.AsBool())
	assert.Equal(t, int64(3), converted[2].Value.AsInt64())
	assert.Equal(t, int64(42), converted[3].Value.AsInt64())
	assert.InDelta(t, 2.5, converted[4].Value.AsFloat64(), 0.001)
	assert.Equal(t, int64(1500), converted[5].Value.AsInt64())
}

func TestToOTelAttributesEmpty(t *testing.T) {
	assert.Nil(t, toOTelAttributes(nil))
}
