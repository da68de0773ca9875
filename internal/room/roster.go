package room

import "time"

// Roster maps connection ids to participants. Snapshots come back in the order
// ids were first inserted. Roster is not safe for concurrent use; the Engine
// serializes access.
type Roster struct {
	entries map[string]Participant
	order   []string
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{entries: make(map[string]Participant)}
}

// Join records a participant for connID, overwriting any existing entry while
// keeping its position.
func (r *Roster) Join(connID string, profile Profile, now time.Time) Participant {
	p := Participant{
		ID:       connID,
		Name:     profile.Name,
		Avatar:   profile.Avatar,
		JoinedAt: now,
		Online:   true,
	}
	if _, exists := r.entries[connID]; !exists {
		r.order = append(r.order, connID)
	}
	r.entries[connID] = p
	return p
}

// Remove deletes and returns the participant for connID. The boolean is false
// when the connection never joined or was already removed.
func (r *Roster) Remove(connID string) (Participant, bool) {
	p, ok := r.entries[connID]
	if !ok {
		return Participant{}, false
	}
	delete(r.entries, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Get looks up the participant for connID.
func (r *Roster) Get(connID string) (Participant, bool) {
	p, ok := r.entries[connID]
	return p, ok
}

// Len returns the number of joined participants.
func (r *Roster) Len() int {
	return len(r.entries)
}

// Snapshot returns a copy of all participants.
func (r *Roster) Snapshot() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}
