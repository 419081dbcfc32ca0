package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"mineguard/warden/pkg/config"
)

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload() error {
	f.calls++
	return f.err
}

func testServer(reloader Reloader) *Server {
	return New(
		&config.AdminConfig{Enabled: true, ListenAddress: "127.0.0.1:0"},
		reloader,
		prometheus.NewRegistry(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestHealthz(t *testing.T) {
	s := testServer(&fakeReloader{})
	rec := httptest.NewRecorder()

	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestReloadEndpoint(t *testing.T) {
	reloader := &fakeReloader{}
	s := testServer(reloader)

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/-/reload", nil))
	if rec.Code != http.StatusOK || reloader.calls != 1 {
		t.Errorf("status = %d, calls = %d", rec.Code, reloader.calls)
	}

	// GET is rejected.
	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/-/reload", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", rec.Code)
	}
}

func TestReloadEndpointReportsFailure(t *testing.T) {
	reloader := &fakeReloader{err: errors.New("bad pattern at chat.rs:3")}
	s := testServer(reloader)

	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/-/reload", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chat.rs:3") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(&fakeReloader{})
	rec := httptest.NewRecorder()

	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
