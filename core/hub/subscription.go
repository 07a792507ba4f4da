package hub

import "sync"

type topic[T any] struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription[T]
	nextID uint64
	hub    *Hub[T]
	closed bool
}

func newTopic[T any](h *Hub[T]) *topic[T] {
	return &topic[T]{
		subs: make(map[uint64]*Subscription[T]),
		hub:  h,
	}
}

func (t *topic[T]) subscribe(buffer int) (*Subscription[T], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTopicNotFound
	}

	t.nextID++
	sub := &Subscription[T]{
		id:    t.nextID,
		topic: t,
		ch:    make(chan T, buffer),
	}
	t.subs[sub.id] = sub
	return sub, nil
}

// publish delivers ev to every subscriber. The topic lock is the per-room
// sequencing point: holding it for the whole fanout is what gives all
// subscribers the same event order.
func (t *topic[T]) publish(ev T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sub := range t.subs {
		sub.deliver(ev, t.hub.notice)
	}
}

func (t *topic[T]) close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, sub := range t.subs {
		delete(t.subs, id)
		sub.closed = true
		close(sub.ch)
	}
}

func (t *topic[T]) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Subscription is one subscriber's handle on a room topic.
type Subscription[T any] struct {
	id     uint64
	topic  *topic[T]
	ch     chan T
	missed int
	closed bool
}

// Events returns the subscriber's queue. The channel is closed when the
// subscription is closed or the topic is torn down; pending events can still
// be drained after close.
func (s *Subscription[T]) Events() <-chan T {
	return s.ch
}

// Close removes the subscriber from future fanout. Idempotent and safe to
// race with a topic teardown.
func (s *Subscription[T]) Close() {
	s.topic.mu.Lock()
	defer s.topic.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	delete(s.topic.subs, s.id)
	close(s.ch)
}

// deliver enqueues ev without ever blocking. Caller holds the topic lock,
// which makes this the only writer to s.ch, so a slot freed by dropping the
// oldest event cannot be stolen.
func (s *Subscription[T]) deliver(ev T, notice func(int) T) {
	if s.missed > 0 && notice != nil {
		select {
		case s.ch <- notice(s.missed):
			s.missed = 0
		default:
		}
	}

	select {
	case s.ch <- ev:
		return
	default:
	}

	// Queue full: drop the oldest event and retry once.
	select {
	case <-s.ch:
		s.missed++
	default:
	}
	select {
	case s.ch <- ev:
	default:
		s.missed++
	}
}
