package room

import (
	"sort"
	"sync"
	"time"
)

// room is one registered room. All fields past the mutex are guarded by it;
// the id never changes after creation.
type room struct {
	id string

	mu           sync.Mutex
	owner        string
	passwordHash []byte
	members      map[string]struct{}
	createdAt    time.Time
	// closed marks a room that has been deleted but whose pointer may still
	// be held by an in-flight operation. Every guarded operation checks it
	// so nothing mutates a room that is no longer registered.
	closed bool
}

func newRoom(id, owner string, passwordHash []byte) *room {
	return &room{
		id:           id,
		owner:        owner,
		passwordHash: passwordHash,
		members:      make(map[string]struct{}),
		createdAt:    time.Now().UTC(),
	}
}

// memberList snapshots the member set sorted for deterministic output.
// Caller holds r.mu.
func (r *room) memberList() []string {
	out := make([]string, 0, len(r.members))
	for m := range r.members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
