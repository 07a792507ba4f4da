// Package hub provides per-room event fanout with bounded per-subscriber
// queues.
//
// Each room has one topic. Publishing to a topic is serialized, so every
// subscriber of a room observes its events in the same relative order; no
// ordering is guaranteed across rooms. Topics are created and torn down by
// the room registry so their lifecycle tracks the room 1:1.
//
// # Slow consumers
//
// Delivery is best-effort per subscriber. Each subscription owns a bounded
// queue (default 64 events). When the queue is full the oldest event is
// dropped to make room for the newest, and the number of dropped events is
// tracked per subscriber. As soon as queue space frees up, a notice event
// built by the WithMissedNotice factory is delivered ahead of the next
// publish, so the client learns it missed N events instead of silently
// losing them. A slow subscriber never blocks the publisher or its peers.
//
// Usage:
//
//	h := hub.New[chat.ServerMessage](
//	    hub.WithSubscriberBuffer(64),
//	    hub.WithMissedNotice(func(n int) chat.ServerMessage {
//	        return chat.ErrorEvent{ErrorMsg: fmt.Sprintf("missed %d messages", n)}
//	    }),
//	)
//	h.Create("general")
//	sub, _ := h.Subscribe("general")
//	defer sub.Close()
//
//	h.Publish("general", ev)
//	for ev := range sub.Events() {
//	    // ...
//	}
package hub
