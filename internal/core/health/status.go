package health

import (
	"context"
	"time"
)

const (
	StatusUp       = "UP"
	StatusDegraded = "DEGRADED"
	StatusDown     = "DOWN"
)

// Checker is a dependency that can report its reachability.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// Dependency is the outcome of one Checker.
type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// Status captures the state of the service at a moment in time.
type Status struct {
	Service      string       `json:"service"`
	Version      string       `json:"version"`
	Environment  string       `json:"environment"`
	Status       string       `json:"status"`
	StartedAt    time.Time    `json:"startedAt"`
	Uptime       string       `json:"uptime"`
	UptimeSecs   int64        `json:"uptimeSeconds"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
}

// Healthy reports whether every dependency answered.
func (s Status) Healthy() bool {
	return s.Status == StatusUp
}
