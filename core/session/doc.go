// Package session tracks the live binding between an authenticated identity
// and its current room, plus the outbound sink used to push events to that
// identity's connection or force it closed.
//
// An identity has at most one session and therefore at most one room at any
// instant. Entries are created when a join or create reserves the identity
// for a room, gain a sink when the persistent connection attaches, and are
// removed on leave, kick, room deletion, or disconnect. Removal is
// idempotent: whichever teardown path runs first wins and later ones are
// no-ops.
package session
