package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	tr, err := InitTracing(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	ctx, span := tr.StartSpan(context.Background(), "ledger.test", attribute.String("farmer.id", "f1"))
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid())
	End(span, errors.New("boom"))

	assert.NoError(t, tr.Shutdown(context.Background()))
}
