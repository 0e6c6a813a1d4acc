package services

import "context"

// Checker reports whether a backing service is reachable
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a ping function to Checker
type CheckerFunc func(ctx context.Context) error

// HealthCheck calls f
func (f CheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}
