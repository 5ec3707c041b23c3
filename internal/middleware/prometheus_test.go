// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/roomcast/internal/metrics"
)

func requestCount(method, endpoint, status string) float64 {
	return testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(method, endpoint, status))
}

func TestPrometheusMetrics_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/rooms/{roomID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := requestCount(http.MethodGet, "/api/v1/rooms/{roomID}", "404")
	for _, room := range []string{"lobby", "kitchen", "attic"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/"+room, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	}

	if got := requestCount(http.MethodGet, "/api/v1/rooms/{roomID}", "404") - before; got != 3 {
		t.Errorf("expected 3 requests under the route pattern, got %v", got)
	}
}

func TestPrometheusMetrics_Unmatched(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	before := requestCount(http.MethodPost, unmatchedRoute, "200")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/anything", nil))

	if got := requestCount(http.MethodPost, unmatchedRoute, "200") - before; got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.APIActiveRequests); got != 0 {
		t.Errorf("expected 0 active requests after completion, got %v", got)
	}
}

func TestMetricsResponseWriter(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{
			name:   "default status is 200",
			write:  func(w http.ResponseWriter) { _, _ = w.Write([]byte("x")) },
			status: http.StatusOK,
		},
		{
			name:   "explicit status",
			write:  func(w http.ResponseWriter) { w.WriteHeader(http.StatusCreated) },
			status: http.StatusCreated,
		},
		{
			name: "first WriteHeader wins",
			write: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusAccepted)
				w.WriteHeader(http.StatusInternalServerError)
			},
			status: http.StatusAccepted,
		},
		{
			name: "status after body is ignored",
			write: func(w http.ResponseWriter) {
				_, _ = w.Write([]byte("x"))
				w.WriteHeader(http.StatusTeapot)
			},
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw := &metricsResponseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
			tt.write(rw)
			if rw.statusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rw.statusCode)
			}
		})
	}
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, client := net.Pipe()
	_ = client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func TestMetricsResponseWriter_Hijack(t *testing.T) {
	inner := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw := &metricsResponseWriter{ResponseWriter: inner, statusCode: http.StatusOK}

	conn, _, err := rw.Hijack()
	if err != nil {
		t.Fatalf("Hijack failed: %v", err)
	}
	_ = conn.Close()

	if !inner.hijacked {
		t.Error("expected the inner writer to be hijacked")
	}
	if rw.statusCode != http.StatusSwitchingProtocols {
		t.Errorf("expected status 101, got %d", rw.statusCode)
	}
	if rw.Unwrap() != inner {
		t.Error("expected Unwrap to return the inner writer")
	}
}

func TestMetricsResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &metricsResponseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("expected an error from a writer without Hijack")
	}
}
