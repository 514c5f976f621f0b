// Package health runs named subsystem probes for the /health endpoint.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// checkTimeout bounds a single probe so one hung dependency (typically the
// database) cannot stall the whole health response.
const checkTimeout = 3 * time.Second

// Status is the outcome of one subsystem probe.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes one subsystem.
type Checker func(ctx context.Context) Status

// Registry holds named checkers and runs them on demand.
type Registry struct {
	mu       sync.RWMutex
	checkers []namedChecker
}

type namedChecker struct {
	name  string
	check Checker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a named checker. Checkers run in registration order.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, namedChecker{name: name, check: check})
	r.mu.Unlock()
}

// CheckAll runs every registered checker and reports the aggregate plus
// per-subsystem results. A panicking checker counts as unhealthy; the rest
// still run.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	checkers := make([]namedChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(checkers))

	for i, nc := range checkers {
		statuses[i] = runChecker(ctx, nc)
		if !statuses[i].Healthy {
			healthy = false
		}
	}

	return healthy, statuses
}

func runChecker(ctx context.Context, nc namedChecker) (st Status) {
	defer func() {
		if rec := recover(); rec != nil {
			st = Status{
				Name:    nc.name,
				Healthy: false,
				Detail:  fmt.Sprintf("checker panicked: %v", rec),
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return nc.check(ctx)
}
