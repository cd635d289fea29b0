package gameserver

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
	"github.com/cory-johannsen/gunfeed/internal/replication"
)

// Firearm is one spawned instance of a FirearmDef.
//
// State and the publisher are owned by the simulation goroutine.
type Firearm struct {
	ID    uuid.UUID
	Def   *firearm.FirearmDef
	State *firearm.State
	pub   *replication.Publisher
}

// Armory holds every live firearm instance indexed by uuid.
type Armory struct {
	mu       sync.RWMutex
	firearms map[uuid.UUID]*Firearm
	newID    func() uuid.UUID
}

// NewArmory returns an empty Armory that assigns random ids.
//
// Postcondition: the internal map is initialised.
func NewArmory() *Armory {
	return &Armory{
		firearms: make(map[uuid.UUID]*Firearm),
		newID:    uuid.New,
	}
}

// Spawn creates a fresh instance of def.
//
// Precondition: def must not be nil.
// Postcondition: Get(id) returns the new instance; returns error if def is invalid.
func (a *Armory) Spawn(def *firearm.FirearmDef) (uuid.UUID, error) {
	if err := def.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("spawning %q: %w", def.ID, err)
	}
	id := a.newID()
	f := &Firearm{
		ID:    id,
		Def:   def,
		State: def.NewState(),
		pub:   replication.NewPublisher(id),
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.firearms[id] = f
	return id, nil
}

// Get returns the instance for id and whether it was found.
func (a *Armory) Get(id uuid.UUID) (*Firearm, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	f, ok := a.firearms[id]
	return f, ok
}

// IDs returns every instance id in byte order.
func (a *Armory) IDs() []uuid.UUID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(a.firearms))
	for id := range a.firearms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

// Len returns the number of instances.
func (a *Armory) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.firearms)
}
