// Package room implements the authoritative in-memory room registry: which
// rooms exist, who owns them, and who is currently joined.
//
// The registry is the only component allowed to mutate membership. Every
// operation on a single room runs under that room's own lock, so the
// credential check and the mutation it guards are one atomic step, and the
// fanout events a mutation emits are ordered consistently with the mutation
// itself. Operations on different rooms never contend.
//
// Room passwords are stored as bcrypt hashes and only ever compared.
//
// # Join flow
//
// Joining is split in two because the room assignment happens over HTTP
// before the persistent connection exists:
//
//   - Authorize runs at HTTP join time: it atomically checks the password,
//     reserves the identity's session for the room, and returns the current
//     member snapshot plus recent history for client seeding.
//   - Join runs when the connection attaches: it atomically inserts the
//     identity into the member set and announces UserJoined to the rest of
//     the room. If the room was deleted in between, Join fails with
//     ErrRoomNotFound and the connection is refused.
package room
