package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing_SpanPerRequestAndPropagation(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		if r.URL.Path == "/health" {
			jsonHandler(http.StatusOK, `{"status":"ok"}`)(w, r)
			return
		}
		jsonHandler(http.StatusForbidden, `{"detail":"forbidden"}`)(w, r)
	}))
	defer srv.Close()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c, err := New(Config{ServerURL: srv.URL, Role: models.RoleOwner}, &fakeStore{}, &fakePublisher{},
		WithTracerProvider(tp))
	require.NoError(t, err)

	require.NoError(t, c.Ping(context.Background()))
	assert.NotEmpty(t, traceparent)

	_, err = c.Me(context.Background())
	require.ErrorIs(t, err, ErrClient)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /health", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "GET /api/v1/owner/me/", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
