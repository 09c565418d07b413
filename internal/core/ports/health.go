package ports

import "context"

// HealthChecker probes one dependency of the signing path.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
	// Critical reports whether the gateway must be taken out of rotation when the
	// dependency is down. A failing non-critical dependency only degrades service.
	Critical() bool
}
