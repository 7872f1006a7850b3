package cache

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/mcoot/roster/internal/model"
)

// Listener receives change events
type Listener func(model.Event)

type subscription struct {
	id        uint64
	eventType model.EventType // empty for OnAny
	fn        Listener
}

// Bus delivers change events to listeners synchronously, in registration order
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates an empty bus
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// On registers fn for one event type and returns a func that removes it
func (b *Bus) On(eventType model.EventType, fn Listener) func() {
	return b.subscribe(eventType, fn)
}

// OnAny registers fn for every event type and returns a func that removes it
func (b *Bus) OnAny(fn Listener) func() {
	return b.subscribe("", fn)
}

func (b *Bus) subscribe(eventType model.EventType, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, eventType: eventType, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit calls every matching listener. A panicking listener is logged and skipped.
func (b *Bus) Emit(event model.Event) {
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.eventType == "" || s.eventType == event.Type {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range subs {
		b.call(s, event)
	}
}

func (b *Bus) call(s subscription, event model.Event) {
	defer func() {
		if err := recover(); err != nil {
			b.logger.Error("listener panicked",
				slog.String("event", string(event.Type)),
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	s.fn(event)
}

// Len returns the number of registered listeners
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
