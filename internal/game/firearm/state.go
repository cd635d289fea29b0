package firearm

import (
	"fmt"

	"github.com/cory-johannsen/gunfeed/internal/game/random"
)

// State is the per-weapon ammunition state: exactly one feed mechanism plus
// the fields shared by every variant. One State exists per weapon instance.
//
// State performs no side effects. Every mutating method re-checks the
// invariants and panics on a violation, which indicates a programming defect.
//
// State is not safe for concurrent use; it is owned by a single simulation
// goroutine.
type State struct {
	capacity  uint32
	caliber   Caliber
	autoCycle bool
	mech      Mechanism
}

// NewState wraps mech.
//
// Precondition: mech is non-nil and satisfies its invariants; pump mechanisms
// must not auto-cycle (they are racked by hand). Panics otherwise.
// Postcondition: Capacity() == mech.Capacity() for the lifetime of the State.
func NewState(mech Mechanism, caliber Caliber, autoCycle bool) *State {
	if mech == nil {
		panic("firearm: NewState: mechanism must not be nil")
	}
	if _, ok := mech.(*Pump); ok && autoCycle {
		panic("firearm: NewState: pump mechanisms cannot auto-cycle")
	}
	s := &State{
		capacity:  mech.Capacity(),
		caliber:   caliber,
		autoCycle: autoCycle,
		mech:      mech,
	}
	s.mustHold("NewState")
	return s
}

// Kind returns the active mechanism variant.
func (s *State) Kind() Kind { return s.mech.Kind() }

// Capacity returns the immutable capacity.
func (s *State) Capacity() uint32 { return s.capacity }

// Caliber returns the caliber tag.
func (s *State) Caliber() Caliber { return s.caliber }

// AutoCycle reports whether a successful shot immediately cycles.
func (s *State) AutoCycle() bool { return s.autoCycle }

// Mechanism returns the active variant for read-only inspection. Callers
// must not mutate it directly.
func (s *State) Mechanism() Mechanism { return s.mech }

// ShotsLeft returns the ammunition available excluding the round in the
// firing position.
//
// Postcondition: 0 <= result <= Capacity().
func (s *State) ShotsLeft() uint32 {
	switch m := s.mech.(type) {
	case *Battery:
		return m.ShotsLeft()
	case *BoltAction:
		return m.ShotsLeft()
	case *Pump:
		return m.ShotsLeft()
	case *Magazine:
		return m.ShotsLeft()
	case *Revolver:
		return m.ShotsLeft()
	default:
		panic(unknownMechanism(m))
	}
}

// TryFire consumes the round at the firing position if it is live.
// Absence of ammunition is reported as a dry fire, never as an error.
func (s *State) TryFire() FireOutcome {
	var out FireOutcome
	switch m := s.mech.(type) {
	case *Battery:
		out = m.TryFire()
	case *BoltAction:
		out = m.TryFire()
	case *Pump:
		out = m.TryFire()
	case *Magazine:
		out = m.TryFire()
	case *Revolver:
		out = m.TryFire()
	default:
		panic(unknownMechanism(m))
	}
	s.mustHold("TryFire")
	return out
}

// Cycle ejects the firing position and feeds the next round where the
// mechanism supports it.
func (s *State) Cycle(manual bool) CycleResult {
	var res CycleResult
	switch m := s.mech.(type) {
	case *Battery:
		res = m.Cycle(manual)
	case *BoltAction:
		res = m.Cycle(manual)
	case *Pump:
		res = m.Cycle(manual)
	case *Magazine:
		res = m.Cycle(manual)
	case *Revolver:
		res = m.Cycle(manual)
	default:
		panic(unknownMechanism(m))
	}
	s.mustHold("Cycle")
	return res
}

// SetBolt opens or closes a BoltAction bolt. Every other variant rejects the
// operation.
//
// Postcondition: returns true iff the bolt state changed.
func (s *State) SetBolt(open bool) bool {
	m, ok := s.mech.(*BoltAction)
	if !ok {
		return false
	}
	changed := m.SetBolt(open)
	s.mustHold("SetBolt")
	return changed
}

// BoltOpen reports whether a BoltAction bolt is open. Always false for other
// variants.
func (s *State) BoltOpen() bool {
	if m, ok := s.mech.(*BoltAction); ok {
		return m.BoltOpen()
	}
	return false
}

// Insert loads round into the reserve.
//
// Postcondition: returns false and changes nothing when the mechanism is full
// or not accepting insertion.
func (s *State) Insert(round AmmoCell) bool {
	var ok bool
	switch m := s.mech.(type) {
	case *Battery:
		ok = m.Insert(round)
	case *BoltAction:
		ok = m.Insert(round)
	case *Pump:
		ok = m.Insert(round)
	case *Magazine:
		ok = m.Insert(round)
	case *Revolver:
		ok = m.Insert(round)
	default:
		panic(unknownMechanism(m))
	}
	s.mustHold("Insert")
	return ok
}

// EjectAll clears every held round.
func (s *State) EjectAll() {
	switch m := s.mech.(type) {
	case *Battery:
		m.EjectAll()
	case *BoltAction:
		m.EjectAll()
	case *Pump:
		m.EjectAll()
	case *Magazine:
		m.EjectAll()
	case *Revolver:
		m.EjectAll()
	default:
		panic(unknownMechanism(m))
	}
	s.mustHold("EjectAll")
}

// Spin randomizes a Revolver's firing position and returns it. ok is false
// for every other variant.
//
// Precondition: src must be non-nil.
func (s *State) Spin(src random.Source) (slot int, ok bool) {
	m, isRevolver := s.mech.(*Revolver)
	if !isRevolver {
		return 0, false
	}
	slot = m.Spin(src)
	s.mustHold("Spin")
	return slot, true
}

// Advance rotates a Revolver cylinder by one slot after a trigger pull. It
// is a no-op for every other variant.
func (s *State) Advance() {
	if m, ok := s.mech.(*Revolver); ok {
		m.Advance()
		s.mustHold("Advance")
	}
}

// InsertMagazine seats a magazine on a Magazine mechanism.
//
// Postcondition: returns false for other variants or when the magazine is
// rejected.
func (s *State) InsertMagazine(count, max uint32) bool {
	m, ok := s.mech.(*Magazine)
	if !ok {
		return false
	}
	inserted := m.InsertMagazine(count, max)
	s.mustHold("InsertMagazine")
	return inserted
}

// AcceptsMagazineType reports whether a Magazine mechanism seats magazines
// of type t. Always false for other variants.
func (s *State) AcceptsMagazineType(t MagazineType) bool {
	m, ok := s.mech.(*Magazine)
	return ok && m.AcceptsType(t)
}

// RemoveMagazine detaches the seated magazine of a Magazine mechanism.
func (s *State) RemoveMagazine() (Mag, bool) {
	m, ok := s.mech.(*Magazine)
	if !ok {
		return Mag{}, false
	}
	mag, removed := m.RemoveMagazine()
	s.mustHold("RemoveMagazine")
	return mag, removed
}

// Recharge adds charge to a Battery and returns the amount added. Zero for
// other variants.
func (s *State) Recharge(n uint32) uint32 {
	m, ok := s.mech.(*Battery)
	if !ok {
		return 0
	}
	added := m.Recharge(n)
	s.mustHold("Recharge")
	return added
}

// CheckInvariants returns the first violated invariant, or nil.
func (s *State) CheckInvariants() error {
	if s.mech.Capacity() != s.capacity {
		return fmt.Errorf("mechanism capacity %d differs from state capacity %d", s.mech.Capacity(), s.capacity)
	}
	if shots := s.ShotsLeft(); shots > s.capacity {
		return fmt.Errorf("shots left %d exceeds capacity %d", shots, s.capacity)
	}
	switch m := s.mech.(type) {
	case *Battery:
		return m.check()
	case *BoltAction:
		return m.check()
	case *Pump:
		return m.check()
	case *Magazine:
		return m.check()
	case *Revolver:
		return m.check()
	default:
		panic(unknownMechanism(m))
	}
}

func (s *State) mustHold(op string) {
	if err := s.CheckInvariants(); err != nil {
		panic(fmt.Sprintf("firearm: State.%s: invariant violated: %v", op, err))
	}
}

func unknownMechanism(m Mechanism) string {
	return fmt.Sprintf("firearm: unknown mechanism %T", m)
}
