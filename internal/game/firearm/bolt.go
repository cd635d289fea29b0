package firearm

import "fmt"

// BoltAction is a bolt-operated chamber fed from a LIFO reserve stack.
//
// Unspawned rounds are counted but not materialized; they are turned into a
// live cell only when the stack is empty and a round must be fed.
//
// Invariant: len(stack)+unspawned <= capacity.
// Invariant: boltOpen implies chamber == CellAbsent.
type BoltAction struct {
	capacity  uint32
	chamber   AmmoCell
	stack     []AmmoCell // top is the last element
	unspawned uint32
	boltOpen  bool

	insertRequiresOpenBolt bool
}

// NewBoltAction returns an empty-chambered, bolt-closed BoltAction with
// unspawned lazily-materialized rounds in reserve.
//
// Precondition: capacity > 0 and unspawned <= capacity (panics otherwise).
func NewBoltAction(capacity, unspawned uint32, insertRequiresOpenBolt bool) *BoltAction {
	if capacity == 0 {
		panic("firearm: NewBoltAction: capacity must be > 0")
	}
	if unspawned > capacity {
		panic(fmt.Sprintf("firearm: NewBoltAction: unspawned %d exceeds capacity %d", unspawned, capacity))
	}
	return &BoltAction{
		capacity:               capacity,
		unspawned:              unspawned,
		insertRequiresOpenBolt: insertRequiresOpenBolt,
	}
}

// Kind returns KindBoltAction.
func (b *BoltAction) Kind() Kind { return KindBoltAction }

// Capacity returns the reserve capacity.
func (b *BoltAction) Capacity() uint32 { return b.capacity }

// Chamber returns the chambered cell.
func (b *BoltAction) Chamber() AmmoCell { return b.chamber }

// Unspawned returns the count of counted-but-unmaterialized rounds.
func (b *BoltAction) Unspawned() uint32 { return b.unspawned }

// BoltOpen reports whether the bolt is open.
func (b *BoltAction) BoltOpen() bool { return b.boltOpen }

// InsertRequiresOpenBolt reports the insertion policy.
func (b *BoltAction) InsertRequiresOpenBolt() bool { return b.insertRequiresOpenBolt }

// Reserve returns a copy of the materialized reserve, top first.
func (b *BoltAction) Reserve() []AmmoCell {
	out := make([]AmmoCell, len(b.stack))
	for i := range b.stack {
		out[i] = b.stack[len(b.stack)-1-i]
	}
	return out
}

// ShotsLeft returns len(stack) + unspawned.
func (b *BoltAction) ShotsLeft() uint32 {
	return uint32(len(b.stack)) + b.unspawned
}

// TryFire fires the chambered round if it is live and the bolt is closed.
//
// Postcondition: on Fired the chamber holds CellSpent.
func (b *BoltAction) TryFire() FireOutcome {
	if b.boltOpen || b.chamber != CellLive {
		return dryFire(b.chamber)
	}
	b.chamber = CellSpent
	return fired()
}

// Cycle ejects the chamber and feeds the next round. With the bolt open it
// does nothing. A manual cycle that finds nothing to feed locks the bolt open.
func (b *BoltAction) Cycle(manual bool) CycleResult {
	if b.boltOpen {
		return CycleResult{}
	}
	res := CycleResult{Ejected: b.chamber}
	b.chamber = CellAbsent
	if next, ok := b.feed(); ok {
		b.chamber = next
		res.Fed = true
		return res
	}
	if manual {
		b.boltOpen = true
		res.BoltLocked = true
	}
	return res
}

func (b *BoltAction) feed() (AmmoCell, bool) {
	if n := len(b.stack); n > 0 {
		top := b.stack[n-1]
		b.stack = b.stack[:n-1]
		return top, true
	}
	if b.unspawned > 0 {
		b.unspawned--
		return CellLive, true
	}
	return CellAbsent, false
}

// SetBolt opens or closes the bolt. Opening ejects the chamber; closing
// immediately attempts a non-manual cycle.
//
// Postcondition: returns false and changes nothing when the bolt is already
// in the requested state.
func (b *BoltAction) SetBolt(open bool) bool {
	if b.boltOpen == open {
		return false
	}
	if open {
		b.chamber = CellAbsent
		b.boltOpen = true
		return true
	}
	b.boltOpen = false
	b.Cycle(false)
	return true
}

// Insert pushes round onto the reserve stack.
//
// Postcondition: returns false and changes nothing when round is absent, the
// reserve is full, or the policy requires an open bolt and it is closed.
func (b *BoltAction) Insert(round AmmoCell) bool {
	if !round.Present() {
		return false
	}
	if b.insertRequiresOpenBolt && !b.boltOpen {
		return false
	}
	if b.ShotsLeft() >= b.capacity {
		return false
	}
	b.stack = append(b.stack, round)
	return true
}

// EjectAll empties the chamber and dumps the whole reserve.
func (b *BoltAction) EjectAll() {
	b.chamber = CellAbsent
	b.stack = nil
	b.unspawned = 0
}

func (b *BoltAction) check() error {
	if b.ShotsLeft() > b.capacity {
		return fmt.Errorf("bolt action shots left %d exceeds capacity %d", b.ShotsLeft(), b.capacity)
	}
	if b.boltOpen && b.chamber != CellAbsent {
		return fmt.Errorf("bolt action bolt open with chamber %s", b.chamber)
	}
	if !b.chamber.Valid() {
		return fmt.Errorf("bolt action chamber holds invalid cell %d", b.chamber)
	}
	for i, c := range b.stack {
		if !c.Present() {
			return fmt.Errorf("bolt action stack[%d] holds %s", i, c)
		}
	}
	return nil
}
