package broadcast

import (
	"rental-auction/utils"
)

// Fanout publishes every event to all underlying publishers. A failure in
// one publisher is logged and does not stop the others; broadcasts are
// fire-and-forget from the core's point of view.
type Fanout struct {
	publishers []Publisher
}

// NewFanout creates a fan-out publisher over the given transports.
func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

// Publish delivers the event to every transport.
func (f *Fanout) Publish(topic string, event Event) error {
	for _, p := range f.publishers {
		if err := p.Publish(topic, event); err != nil {
			utils.Warn("broadcast: publish failed", map[string]any{
				"topic": topic,
				"type":  string(event.Type),
				"error": err.Error(),
			})
		}
	}
	return nil
}

// LogPublisher writes events to the application log. Used as a fallback
// transport and in local development.
type LogPublisher struct{}

// Publish logs the event.
func (LogPublisher) Publish(topic string, event Event) error {
	utils.Info("broadcast: event published", map[string]any{
		"topic": topic,
		"type":  string(event.Type),
	})
	return nil
}
