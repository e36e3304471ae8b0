// Package tlmt defines the minimal telemetry surface used by the runners
package tlmt

import "context"

// Event is a single telemetry event
type Event struct {
	Name string
	Data map[string]any
}

// NewEvent creates an Event
func NewEvent(name string, data map[string]any) Event {
	return Event{
		Name: name,
		Data: data,
	}
}

// Telemetry sends events somewhere, or nowhere
type Telemetry interface {
	Send(ctx context.Context, event Event) error
	Close() error
}
