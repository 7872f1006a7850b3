// Package events fans roster change events out to external subscribers.
package events

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mcoot/roster/internal/model"
)

// Publisher delivers a change event to some outside audience
type Publisher interface {
	Publish(ctx context.Context, event model.Event) error
}

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event model.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher records each event at info level
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With(slog.String("component", "events"))}
}

func (p *LogPublisher) Publish(ctx context.Context, event model.Event) error {
	p.logger.InfoContext(ctx, "roster change",
		slog.String("type", string(event.Type)),
		slog.Time("timestamp", event.Timestamp))
	return nil
}

// Subject maps an event type such as "player:created" to "<prefix>.player.created"
func Subject(prefix string, t model.EventType) string {
	return prefix + "." + strings.ReplaceAll(string(t), ":", ".")
}
