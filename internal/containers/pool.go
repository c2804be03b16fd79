// Package containers tracks the sandboxed tool services (browser
// automation, document processing) that agents are allowed to reach,
// probes their health endpoints, and caps concurrent use.
package containers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/opendelek/opendelek/internal/config"
)

// probeTimeout bounds one health probe round-trip.
const probeTimeout = 3 * time.Second

// Service is one registered container service.
type Service struct {
	Name string
	URL  string
}

// ErrPoolBusy is returned when the concurrent-use cap is reached.
var ErrPoolBusy = fmt.Errorf("containers: pool at capacity")

// Pool is the registry of enabled container services.
type Pool struct {
	services []Service
	client   *http.Client
	slots    chan struct{}
}

// NewPool registers the services enabled in configuration. Services
// with empty URLs are disabled.
func NewPool(cfg config.Containers) *Pool {
	var services []Service
	if cfg.BrowserServiceURL != "" {
		services = append(services, Service{Name: "browser_service", URL: cfg.BrowserServiceURL})
	}
	if cfg.DocumentServiceURL != "" {
		services = append(services, Service{Name: "document_service", URL: cfg.DocumentServiceURL})
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &Pool{
		services: services,
		client:   &http.Client{Timeout: probeTimeout},
		slots:    make(chan struct{}, maxConcurrent),
	}
}

// Services returns the registered services.
func (p *Pool) Services() []Service {
	return p.services
}

// Acquire claims one concurrency slot without blocking. Returns
// ErrPoolBusy at capacity. Release must be called when the service
// call completes.
func (p *Pool) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.slots <- struct{}{}:
		return nil
	default:
		return ErrPoolBusy
	}
}

// Release frees one concurrency slot.
func (p *Pool) Release() {
	select {
	case <-p.slots:
	default:
	}
}

// Healthy probes every registered service's /health endpoint. With no
// services enabled it reports true: an empty pool is not a failure.
func (p *Pool) Healthy(ctx context.Context) bool {
	for _, svc := range p.services {
		if !p.probe(ctx, svc) {
			return false
		}
	}
	return true
}

func (p *Pool) probe(ctx context.Context, svc Service) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
