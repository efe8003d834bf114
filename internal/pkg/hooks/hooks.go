// Package hooks is the extension bus controllers fire after they save or
// delete a record. Listeners run synchronously in registration order; a
// panicking listener is logged and skipped so it cannot break the request.
package hooks

import (
	"context"
	"sync"

	"github.com/ignite/customer-console/internal/pkg/logger"
)

// Event names fired by controllers.
const (
	AfterSave   = "controller_action_save_data"
	AfterDelete = "controller_action_delete_data"
	// Any subscribes a listener to every event.
	Any = "*"
)

// Event is the payload handed to listeners.
type Event struct {
	Name       string `json:"name"`
	Controller string `json:"controller"`
	Action     string `json:"action"`
	Success    bool   `json:"success"`
	CustomerID int64  `json:"-"`
	Model      any    `json:"model"`
}

// Listener reacts to an event.
type Listener func(ctx context.Context, e Event)

// Bus dispatches events to listeners. The zero value is not usable; call New.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{listeners: make(map[string][]Listener)}
}

// On registers l for events named name, or for every event when name is Any.
func (b *Bus) On(name string, l Listener) {
	b.mu.Lock()
	b.listeners[name] = append(b.listeners[name], l)
	b.mu.Unlock()
}

// Fire delivers e to the listeners of e.Name and then to Any listeners.
func (b *Bus) Fire(ctx context.Context, e Event) {
	b.mu.RLock()
	ls := make([]Listener, 0, len(b.listeners[e.Name])+len(b.listeners[Any]))
	ls = append(ls, b.listeners[e.Name]...)
	ls = append(ls, b.listeners[Any]...)
	b.mu.RUnlock()

	for _, l := range ls {
		b.call(ctx, l, e)
	}
}

func (b *Bus) call(ctx context.Context, l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("hook listener panicked", "event", e.Name, "controller", e.Controller, "panic", r)
		}
	}()
	l(ctx, e)
}
