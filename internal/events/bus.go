package events

import "sync"

// Bus is a synchronous in-process publish/subscribe hub.
//
// Handlers for one event type run in subscription order on the publishing
// goroutine. Publish never drops, queues, or reorders: by the time it
// returns, every subscriber has seen the event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	all      []allHandler
	allSeq   uint64
}

type allHandler struct {
	id uint64
	fn Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(event EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// SubscribeAll registers a handler for every event type and returns a
// cancel function that detaches it. Used by the event stream to forward
// the full firehose to connected clients for the lifetime of a connection.
func (b *Bus) SubscribeAll(handler Handler) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allSeq++
	id := b.allSeq
	b.all = append(b.all, allHandler{id: id, fn: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.all {
			if h.id == id {
				b.all = append(b.all[:i], b.all[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers data to all handlers of its event type, then to the
// catch-all subscribers. Delivery is synchronous; handlers must not call
// back into Subscribe from within themselves or they deadlock.
func (b *Bus) Publish(data EventData) {
	b.mu.RLock()
	typed := make([]Handler, len(b.handlers[data.EventType()]))
	copy(typed, b.handlers[data.EventType()])
	all := make([]allHandler, len(b.all))
	copy(all, b.all)
	b.mu.RUnlock()

	for _, h := range typed {
		h(data)
	}
	for _, h := range all {
		h.fn(data)
	}
}
