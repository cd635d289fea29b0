package firearm

import "fmt"

// Pump is a tube-fed chamber racked by hand. Structurally it is a BoltAction
// without an externally operated bolt. Reserve entries are true for live
// rounds and false for spent casings.
//
// Invariant: len(stack)+unspawned <= capacity.
// Invariant: unspawned == 0 at creation.
type Pump struct {
	capacity  uint32
	chamber   AmmoCell
	stack     []bool // top is the last element
	unspawned uint32
}

// NewPump returns an empty Pump. Lazy ammunition is not supported for
// pump-fed weapons, so unspawned always starts at zero.
//
// Precondition: capacity > 0 (panics otherwise).
func NewPump(capacity uint32) *Pump {
	if capacity == 0 {
		panic("firearm: NewPump: capacity must be > 0")
	}
	return &Pump{capacity: capacity}
}

// Kind returns KindPump.
func (p *Pump) Kind() Kind { return KindPump }

// Capacity returns the tube capacity.
func (p *Pump) Capacity() uint32 { return p.capacity }

// Chamber returns the chambered cell.
func (p *Pump) Chamber() AmmoCell { return p.chamber }

// Unspawned returns the unmaterialized count, which stays zero for pumps.
func (p *Pump) Unspawned() uint32 { return p.unspawned }

// Reserve returns a copy of the tube contents, top first.
func (p *Pump) Reserve() []bool {
	out := make([]bool, len(p.stack))
	for i := range p.stack {
		out[i] = p.stack[len(p.stack)-1-i]
	}
	return out
}

// ShotsLeft returns len(stack) + unspawned.
func (p *Pump) ShotsLeft() uint32 {
	return uint32(len(p.stack)) + p.unspawned
}

// TryFire fires the chambered round if it is live.
func (p *Pump) TryFire() FireOutcome {
	if p.chamber != CellLive {
		return dryFire(p.chamber)
	}
	p.chamber = CellSpent
	return fired()
}

// Cycle ejects the chamber and feeds the top of the tube.
func (p *Pump) Cycle(bool) CycleResult {
	res := CycleResult{Ejected: p.chamber}
	p.chamber = CellAbsent
	if n := len(p.stack); n > 0 {
		live := p.stack[n-1]
		p.stack = p.stack[:n-1]
		p.chamber = CellSpent
		if live {
			p.chamber = CellLive
		}
		res.Fed = true
		return res
	}
	if p.unspawned > 0 {
		p.unspawned--
		p.chamber = CellLive
		res.Fed = true
	}
	return res
}

// Insert pushes round into the tube.
//
// Postcondition: returns false and changes nothing when round is absent or
// the tube is full.
func (p *Pump) Insert(round AmmoCell) bool {
	if !round.Present() || p.ShotsLeft() >= p.capacity {
		return false
	}
	p.stack = append(p.stack, round == CellLive)
	return true
}

// EjectAll empties the chamber and the tube.
func (p *Pump) EjectAll() {
	p.chamber = CellAbsent
	p.stack = nil
	p.unspawned = 0
}

func (p *Pump) check() error {
	if p.ShotsLeft() > p.capacity {
		return fmt.Errorf("pump shots left %d exceeds capacity %d", p.ShotsLeft(), p.capacity)
	}
	if !p.chamber.Valid() {
		return fmt.Errorf("pump chamber holds invalid cell %d", p.chamber)
	}
	return nil
}
