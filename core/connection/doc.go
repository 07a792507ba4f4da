// Package connection runs the per-connection actor that bridges one
// authenticated identity to the room registry and the fanout hub.
//
// An actor comes to life once the HTTP-side join or create has reserved the
// identity's session. Run attaches the actor as the session's sink, inserts
// the identity into room membership, subscribes to the room's topic, and
// then drives two duties until either terminates:
//
//   - the inbound duty reads decoded client commands and forwards them to
//     the registry (send, leave, kick) or answers directly (ping);
//   - the outbound duty relays hub events and direct deliveries to the
//     transport, and self-terminates when it relays a RoomDeleted or a
//     UserKicked aimed at this identity.
//
// Whichever duty stops first triggers a single teardown: signal the other
// duty, flush pending outbound events, close the transport, leave the room
// (idempotent, so racing with a kick or room deletion is safe), and drop the
// session. Malformed or out-of-context client commands are answered with an
// Error event and never tear the connection down; transport failures do, via
// the same cleanup path as a graceful leave.
package connection
