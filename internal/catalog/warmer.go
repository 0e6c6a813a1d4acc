package catalog

import (
	"context"
	"log/slog"
	"time"
)

// Refresher reloads a cached catalog
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Warmer periodically reloads the catalogs so requests rarely miss the cache
type Warmer struct {
	catalog  Refresher
	interval time.Duration
}

// NewWarmer creates a new catalog warmer
func NewWarmer(catalog Refresher, interval time.Duration) *Warmer {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &Warmer{
		catalog:  catalog,
		interval: interval,
	}
}

// Start begins the warmer in a goroutine
func (w *Warmer) Start(ctx context.Context) {
	go w.run(ctx)
}

// run is the main loop for the warmer
func (w *Warmer) run(ctx context.Context) {
	slog.Info("catalog warmer started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Warm immediately on start
	w.warm(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog warmer stopped")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

func (w *Warmer) warm(ctx context.Context) {
	slog.Debug("running catalog refresh")

	if err := w.catalog.Refresh(ctx); err != nil {
		slog.Error("failed to refresh catalog", "error", err)
	}
}
