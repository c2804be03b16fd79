package containers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opendelek/opendelek/internal/config"
)

func healthServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmptyPoolIsHealthy(t *testing.T) {
	p := NewPool(config.Containers{MaxConcurrent: 2})
	if !p.Healthy(context.Background()) {
		t.Error("pool with no services should report healthy")
	}
	if len(p.Services()) != 0 {
		t.Errorf("expected no services, got %v", p.Services())
	}
}

func TestHealthyProbesAllServices(t *testing.T) {
	browser := healthServer(t, http.StatusOK)
	document := healthServer(t, http.StatusOK)

	p := NewPool(config.Containers{
		BrowserServiceURL:  browser.URL,
		DocumentServiceURL: document.URL,
		MaxConcurrent:      2,
	})
	if len(p.Services()) != 2 {
		t.Fatalf("expected 2 services, got %d", len(p.Services()))
	}
	if !p.Healthy(context.Background()) {
		t.Error("all services up: expected healthy")
	}
}

func TestUnhealthyService(t *testing.T) {
	browser := healthServer(t, http.StatusOK)
	document := healthServer(t, http.StatusServiceUnavailable)

	p := NewPool(config.Containers{
		BrowserServiceURL:  browser.URL,
		DocumentServiceURL: document.URL,
		MaxConcurrent:      2,
	})
	if p.Healthy(context.Background()) {
		t.Error("one failing service must make the pool unhealthy")
	}
}

func TestUnreachableService(t *testing.T) {
	p := NewPool(config.Containers{
		BrowserServiceURL: "http://127.0.0.1:1",
		MaxConcurrent:     1,
	})
	if p.Healthy(context.Background()) {
		t.Error("unreachable service must make the pool unhealthy")
	}
}

func TestAcquireRespectsCap(t *testing.T) {
	p := NewPool(config.Containers{MaxConcurrent: 2})
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Acquire(ctx); !errors.Is(err, ErrPoolBusy) {
		t.Errorf("expected ErrPoolBusy at capacity, got %v", err)
	}

	p.Release()
	if err := p.Acquire(ctx); err != nil {
		t.Errorf("slot should be free after release: %v", err)
	}
}

func TestAcquireCancelledContext(t *testing.T) {
	p := NewPool(config.Containers{MaxConcurrent: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Acquire(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
