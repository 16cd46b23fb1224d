package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/R3E-Network/scoring_service/pkg/logger"
)

func discardLogger() *logger.Logger {
	log := logger.NewDefault("test")
	log.SetOutput(io.Discard)
	return log
}

func TestTracingGeneratesRequestID(t *testing.T) {
	var seen string
	handler := Tracing(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/method", nil))

	if seen == "" {
		t.Fatalf("expected a request id in context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Fatalf("response header %q does not match context id %q", got, seen)
	}
}

func TestTracingPropagatesInboundID(t *testing.T) {
	var seen string
	handler := Tracing(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/method", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "trace-123" {
		t.Fatalf("inbound request id not propagated, got %q", seen)
	}
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFrom(req.Context()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
