package gracexit

import (
	"fmt"
	"sync"
)

// Event is a notification broadcast to passive observers.
type Event int

const (
	// EventWillExit is broadcast right before the exit handler is invoked.
	EventWillExit Event = iota + 1
	// EventExit is broadcast right after EventWillExit.
	//
	// Deprecated: subscribe to EventWillExit instead.
	EventExit
)

// String returns string representation of the Event.
func (e Event) String() string {
	switch e {
	case EventWillExit:
		return "will-exit"
	case EventExit:
		return "exit"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Observer is notified about the upcoming exit. It must not block.
type Observer func(isExpectedExit bool)

type subscription struct {
	id       uint64
	event    Event
	observer Observer
}

// broadcaster is a synchronous multi-subscriber notifier.
type broadcaster struct {
	mx     *sync.Mutex
	nextID uint64
	subs   []subscription
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		mx: &sync.Mutex{},
	}
}

func (b *broadcaster) subscribe(event Event, o Observer) func() {
	b.mx.Lock()
	defer b.mx.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, event: event, observer: o})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *broadcaster) unsubscribe(id uint64) {
	b.mx.Lock()
	defer b.mx.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// emit notifies every observer of the event in subscription order.
// A panicking observer is reported to onPanic and does not stop the broadcast.
func (b *broadcaster) emit(event Event, isExpectedExit bool, onPanic func(err error)) {
	b.mx.Lock()
	subs := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.event == event {
			subs = append(subs, s)
		}
	}
	b.mx.Unlock()

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					onPanic(fmt.Errorf("%v observer panicked: %w", event, toPanicError(r)))
				}
			}()
			s.observer(isExpectedExit)
		}()
	}
}
