package firearm

import (
	"fmt"

	"github.com/cory-johannsen/gunfeed/internal/game/random"
)

// Revolver is a fixed ring of cylinder slots. Exactly one slot, currentSlot,
// is in the firing position.
//
// Invariant: len(cells) == capacity for the lifetime of the instance.
// Invariant: currentSlot < len(cells).
type Revolver struct {
	cells       []AmmoCell
	currentSlot int
}

// NewRevolver returns a Revolver with capacity empty slots and slot 0 in the
// firing position.
//
// Precondition: capacity > 0 (panics otherwise).
func NewRevolver(capacity uint32) *Revolver {
	if capacity == 0 {
		panic("firearm: NewRevolver: capacity must be > 0")
	}
	return &Revolver{cells: make([]AmmoCell, capacity)}
}

// Kind returns KindRevolver.
func (r *Revolver) Kind() Kind { return KindRevolver }

// Capacity returns the number of cylinder slots.
func (r *Revolver) Capacity() uint32 { return uint32(len(r.cells)) }

// Cells returns a copy of the cylinder contents indexed by slot.
func (r *Revolver) Cells() []AmmoCell {
	out := make([]AmmoCell, len(r.cells))
	copy(out, r.cells)
	return out
}

// CurrentSlot returns the index of the firing position.
func (r *Revolver) CurrentSlot() int { return r.currentSlot }

// ShotsLeft returns the number of live cells in the cylinder.
func (r *Revolver) ShotsLeft() uint32 {
	var n uint32
	for _, c := range r.cells {
		if c == CellLive {
			n++
		}
	}
	return n
}

// TryFire fires the cell in the firing position if it is live. It does not
// rotate the cylinder; see Advance.
func (r *Revolver) TryFire() FireOutcome {
	c := r.cells[r.currentSlot]
	if c != CellLive {
		return dryFire(c)
	}
	r.cells[r.currentSlot] = CellSpent
	return fired()
}

// Advance rotates the cylinder by one slot.
//
// Postcondition: currentSlot == (old+1) % capacity.
func (r *Revolver) Advance() {
	r.currentSlot = (r.currentSlot + 1) % len(r.cells)
}

// Cycle does nothing: a cylinder rotates only on fire or spin.
func (r *Revolver) Cycle(bool) CycleResult { return CycleResult{} }

// Spin picks a uniformly random firing position and returns it. Cell
// contents are unchanged.
//
// Precondition: src must be non-nil.
func (r *Revolver) Spin(src random.Source) int {
	r.currentSlot = src.Intn(len(r.cells))
	return r.currentSlot
}

// Insert fills the first empty slot at or after the firing position.
//
// Postcondition: returns false and changes nothing when round is absent or
// every slot is occupied. currentSlot is unchanged.
func (r *Revolver) Insert(round AmmoCell) bool {
	if !round.Present() {
		return false
	}
	n := len(r.cells)
	for i := 0; i < n; i++ {
		j := (r.currentSlot + i) % n
		if r.cells[j] == CellAbsent {
			r.cells[j] = round
			return true
		}
	}
	return false
}

// EjectAll empties every slot without moving the firing position.
func (r *Revolver) EjectAll() {
	for i := range r.cells {
		r.cells[i] = CellAbsent
	}
}

func (r *Revolver) check() error {
	if len(r.cells) == 0 {
		return fmt.Errorf("revolver has no cylinder slots")
	}
	if r.currentSlot < 0 || r.currentSlot >= len(r.cells) {
		return fmt.Errorf("revolver current slot %d out of range [0, %d)", r.currentSlot, len(r.cells))
	}
	for i, c := range r.cells {
		if !c.Valid() {
			return fmt.Errorf("revolver cell %d holds invalid value %d", i, c)
		}
	}
	return nil
}
