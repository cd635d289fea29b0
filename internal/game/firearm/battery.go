package firearm

import "fmt"

// Battery is an internal charge pool. Charge is observed as a count only;
// individual shots are never tracked.
//
// Invariant: charge <= capacity.
type Battery struct {
	charge   uint32
	capacity uint32
}

// NewBattery returns a Battery holding charge out of capacity.
//
// Precondition: capacity > 0 and charge <= capacity (panics otherwise).
func NewBattery(capacity, charge uint32) *Battery {
	if capacity == 0 {
		panic("firearm: NewBattery: capacity must be > 0")
	}
	if charge > capacity {
		panic(fmt.Sprintf("firearm: NewBattery: charge %d exceeds capacity %d", charge, capacity))
	}
	return &Battery{charge: charge, capacity: capacity}
}

// Kind returns KindBattery.
func (b *Battery) Kind() Kind { return KindBattery }

// Capacity returns the maximum charge.
func (b *Battery) Capacity() uint32 { return b.capacity }

// Charge returns the current charge.
func (b *Battery) Charge() uint32 { return b.charge }

// ShotsLeft returns the current charge.
func (b *Battery) ShotsLeft() uint32 { return b.charge }

// TryFire spends one unit of charge if any remains.
//
// Postcondition: on Fired, charge decreased by exactly one.
func (b *Battery) TryFire() FireOutcome {
	if b.charge == 0 {
		return dryFire(CellAbsent)
	}
	b.charge--
	return fired()
}

// Cycle is a no-op: the pool feeds itself.
func (b *Battery) Cycle(bool) CycleResult { return CycleResult{} }

// Insert adds one unit of charge for a live round.
//
// Postcondition: returns false and changes nothing when round is not live or
// the battery is full.
func (b *Battery) Insert(round AmmoCell) bool {
	if round != CellLive || b.charge >= b.capacity {
		return false
	}
	b.charge++
	return true
}

// Recharge adds up to n units of charge and returns how many were added.
//
// Postcondition: charge <= capacity.
func (b *Battery) Recharge(n uint32) uint32 {
	room := b.capacity - b.charge
	if n > room {
		n = room
	}
	b.charge += n
	return n
}

// EjectAll is a no-op: charge is not a removable round.
func (b *Battery) EjectAll() {}

func (b *Battery) check() error {
	if b.charge > b.capacity {
		return fmt.Errorf("battery charge %d exceeds capacity %d", b.charge, b.capacity)
	}
	return nil
}
