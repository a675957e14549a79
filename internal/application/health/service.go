package health

import (
	"context"
	"time"

	corehealth "exemplo.com.br/creditos/internal/core/health"
)

const checkTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checkers  []corehealth.Checker
}

// NewService builds the health service. Checkers are pinged on every Status call.
func NewService(meta Metadata, checkers ...corehealth.Checker) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checkers:  checkers,
	}
}

// Status returns the current availability snapshot. Any failing dependency
// turns the overall status to DEGRADED.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, c := range s.checkers {
		dep := check(ctx, c)
		if dep.Status != corehealth.StatusUp {
			status.Status = corehealth.StatusDegraded
		}
		status.Dependencies = append(status.Dependencies, dep)
	}
	return status
}

func check(ctx context.Context, c corehealth.Checker) corehealth.Dependency {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := c.Ping(ctx)
	dep := corehealth.Dependency{
		Name:    c.Name(),
		Status:  corehealth.StatusUp,
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		dep.Status = corehealth.StatusDown
		dep.Error = err.Error()
	}
	return dep
}
