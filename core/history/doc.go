// Package history keeps a bounded per-room buffer of recent chat messages,
// used to seed clients on join. This is presence-oriented recall, not durable
// persistence: a room's history disappears with the room.
//
// Two backends ship: MemoryStore, the default in-process ring, and
// RedisStore, which keeps the ring in a Redis list so history survives a
// process restart.
package history
