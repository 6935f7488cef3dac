package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const checkTimeout = 5 * time.Second

type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// dependency is one pinged collaborator. A failing optional dependency
// degrades readiness without failing it.
type dependency struct {
	name     string
	optional bool
	ping     func(ctx context.Context) error
}

// Service backs the liveness and readiness probes of both processes.
type Service struct {
	started time.Time
	version string
	log     *zap.Logger

	mu      sync.RWMutex
	deps    []dependency
	details map[string]func() interface{}
}

func NewService(version string, log *zap.Logger) *Service {
	return &Service{
		started: time.Now(),
		version: version,
		log:     log,
		details: make(map[string]func() interface{}),
	}
}

// Require registers a dependency whose failure makes the process not ready.
func (s *Service) Require(name string, ping func(ctx context.Context) error) {
	s.add(dependency{name: name, ping: ping})
}

// Optional registers a dependency whose failure only degrades readiness.
func (s *Service) Optional(name string, ping func(ctx context.Context) error) {
	s.add(dependency{name: name, optional: true, ping: ping})
}

// Report adds a value to the liveness payload, e.g. the number of stored orders.
func (s *Service) Report(name string, value func() interface{}) {
	s.mu.Lock()
	s.details[name] = value
	s.mu.Unlock()
}

func (s *Service) add(d dependency) {
	s.mu.Lock()
	s.deps = append(s.deps, d)
	s.mu.Unlock()
	s.log.Info("Registered health check", zap.String("name", d.name), zap.Bool("optional", d.optional))
}

func (s *Service) Health(ctx context.Context) *HealthResponse {
	resp := &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.details) > 0 {
		resp.Details = make(map[string]interface{}, len(s.details))
		for name, value := range s.details {
			resp.Details[name] = value()
		}
	}
	return resp
}

func (s *Service) check(ctx context.Context, d dependency) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := d.ping(ctx)
	result := CheckResult{
		Name:      d.name,
		Status:    StatusHealthy,
		Message:   "connection ok",
		Duration:  time.Since(start),
		Timestamp: start,
	}
	if err == nil {
		return result
	}

	s.log.Warn("Health check failed", zap.String("name", d.name), zap.Error(err))
	result.Message = "ping failed: " + err.Error()
	result.Status = StatusUnhealthy
	if d.optional {
		result.Status = StatusDegraded
	}
	return result
}

// Ready pings every dependency concurrently.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	deps := append([]dependency(nil), s.deps...)
	s.mu.RUnlock()

	results := make(chan CheckResult, len(deps))
	for _, d := range deps {
		go func(d dependency) { results <- s.check(ctx, d) }(d)
	}

	resp := &ReadyResponse{
		Ready:  true,
		Status: StatusHealthy,
		Checks: make(map[string]CheckResult, len(deps)),
	}
	for range deps {
		r := <-results
		resp.Checks[r.Name] = r
		switch r.Status {
		case StatusUnhealthy:
			resp.Ready = false
			resp.Status = StatusUnhealthy
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	resp.Timestamp = time.Now()
	return resp
}
