// Package events delivers account events. The log publisher writes each
// event as a structured log record, which is how reset instructions and
// account notifications leave the gateway until a mailer consumes them.
package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/account-gateway/internal/platform/logging"
	"github.com/jsamuelsen/account-gateway/internal/ports"
)

// LogPublisher implements ports.EventPublisher on top of slog. Records go
// to the request logger so they carry the request and trace IDs.
type LogPublisher struct {
	published *prometheus.CounterVec
}

// Config configures a LogPublisher.
type Config struct {
	// Registerer receives the published events counter. Nil disables it.
	Registerer prometheus.Registerer
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(cfg Config) *LogPublisher {
	p := &LogPublisher{}

	if cfg.Registerer != nil {
		p.published = registerCounter(cfg.Registerer)
	}

	return p
}

// Publish implements ports.EventPublisher.
func (p *LogPublisher) Publish(ctx context.Context, event ports.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logging.FromContext(ctx).InfoContext(ctx, "account event",
		slog.String("component", "events"),
		slog.String("event_type", event.EventType()),
		slog.Any("payload", event.Payload()),
	)

	if p.published != nil {
		p.published.WithLabelValues(event.EventType()).Inc()
	}

	return nil
}

func registerCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "account_gateway_events_published_total",
		Help: "Account events published, by type.",
	}, []string{"type"})

	if err := reg.Register(counter); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}

		return nil
	}

	return counter
}
