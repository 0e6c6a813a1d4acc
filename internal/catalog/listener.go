package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Invalidator drops cached catalog data
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Listener invalidates the catalog cache whenever the database announces a
// catalog change on a NOTIFY channel
type Listener struct {
	listener *pq.Listener
	channel  string
	target   Invalidator
}

// NewListener opens a LISTEN connection on channel
func NewListener(dsn, channel string, target Invalidator) (*Listener, error) {
	events := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed:
			slog.Warn("catalog listener connection attempt failed", "error", err)
		case pq.ListenerEventDisconnected:
			slog.Warn("catalog listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			slog.Info("catalog listener reconnected")
		}
	}

	l := pq.NewListener(dsn, 10*time.Second, time.Minute, events)
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	return &Listener{listener: l, channel: channel, target: target}, nil
}

// Start consumes notifications in a goroutine until ctx is cancelled
func (l *Listener) Start(ctx context.Context) {
	go l.run(ctx)
}

func (l *Listener) run(ctx context.Context) {
	slog.Info("catalog listener started", "channel", l.channel)
	defer l.listener.Close()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog listener stopped")
			return

		case n := <-l.listener.Notify:
			// A nil notification follows a reconnect; changes may have been
			// missed while disconnected, so invalidate either way
			table := ""
			if n != nil {
				table = n.Extra
			}
			slog.Info("catalog change received", "table", table)
			if err := l.target.Invalidate(ctx); err != nil {
				slog.Error("failed to invalidate catalog cache", "error", err)
			}

		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				slog.Warn("catalog listener ping failed", "error", err)
			}
		}
	}
}
