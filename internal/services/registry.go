package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry tracks the backing services the tracker depends on
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates a new service registry
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// List returns all registered service names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll checks health of all registered services
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error)
	for name, checker := range r.checkers {
		results[name] = checker.HealthCheck(ctx)
	}
	return results
}

// Healthy returns the first failure in name order, or nil if every service is up
func (r *Registry) Healthy(ctx context.Context) error {
	results := r.HealthCheckAll(ctx)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := results[name]; err != nil {
			return fmt.Errorf("%s unavailable: %w", name, err)
		}
	}
	return nil
}
