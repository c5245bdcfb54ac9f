package lifecycle

import "sync"

type subscription struct {
	id uint64
	fn func(State)
}

// Emitter holds the current state and broadcasts every change to its
// observers synchronously, in subscription order. Observers run outside the
// lock and may call back into the Emitter. Nothing is buffered: a new
// observer sees only later states.
type Emitter struct {
	mu        sync.Mutex
	current   State
	observers []subscription
	nextID    uint64
}

// NewEmitter returns an Emitter at idle.
func NewEmitter() *Emitter {
	return &Emitter{current: Idle()}
}

// Emit records s as current and notifies observers.
func (e *Emitter) Emit(s State) {
	e.mu.Lock()
	e.current = s
	observers := make([]subscription, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, o := range observers {
		o.fn(s)
	}
}

// Subscribe adds fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (e *Emitter) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.observers = append(e.observers, subscription{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, o := range e.observers {
				if o.id == id {
					e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Current returns the last emitted state.
func (e *Emitter) Current() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Reset emits idle.
func (e *Emitter) Reset() {
	e.Emit(Idle())
}
