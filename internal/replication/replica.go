package replication

import (
	"errors"
	"fmt"
	"strings"
)

// Changed is a set of observable fields that differ between two views.
type Changed uint16

const (
	// ChangedKind means the mechanism variant itself changed (or the replica
	// received its first snapshot).
	ChangedKind Changed = 1 << iota
	// ChangedChamber covers BoltAction and Pump chamber contents.
	ChangedChamber
	// ChangedCells covers reserve or cylinder cell contents.
	ChangedCells
	// ChangedShotsLeft covers the BoltAction derived shots-left count.
	ChangedShotsLeft
	// ChangedBolt covers the BoltAction bolt flag.
	ChangedBolt
	// ChangedChambered covers the Magazine chambered flag.
	ChangedChambered
	// ChangedMagazine covers Magazine presence.
	ChangedMagazine
	// ChangedMagCount covers the seated magazine's count or max.
	ChangedMagCount
	// ChangedSlot covers the Revolver firing position.
	ChangedSlot
	// ChangedCharge covers Battery charge.
	ChangedCharge
	// ChangedCapacity covers Battery capacity.
	ChangedCapacity
	// ChangedAutoEject covers the Magazine auto-eject counter.
	ChangedAutoEject
)

var changedNames = []string{
	"kind", "chamber", "cells", "shots_left", "bolt", "chambered",
	"magazine", "mag_count", "slot", "charge", "capacity", "auto_eject",
}

// Any reports whether any field changed.
func (c Changed) Any() bool { return c != 0 }

// Has reports whether every field in f changed.
func (c Changed) Has(f Changed) bool { return f != 0 && c&f == f }

// String lists the changed field names joined by "|".
func (c Changed) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for i, name := range changedNames {
		if c&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

var (
	// ErrStale is returned for snapshots not newer than the last applied one.
	ErrStale = errors.New("replication: stale snapshot")
	// ErrMalformed is returned for snapshots whose contents are invalid.
	ErrMalformed = errors.New("replication: malformed snapshot")
)

// ReplicaState is the viewer-side copy of one firearm's observable state. It
// is never simulated; it only changes through Apply.
type ReplicaState struct {
	lastSequence uint64
	view         View
}

// LastSequence returns the sequence of the last applied snapshot, 0 if none.
func (r *ReplicaState) LastSequence() uint64 { return r.lastSequence }

// View returns a copy of the current view, or nil before the first snapshot.
func (r *ReplicaState) View() View {
	if r.view == nil {
		return nil
	}
	return r.view.clone()
}

// Check reports why snap would be discarded, or nil if Apply would accept it.
func (r *ReplicaState) Check(snap Snapshot) error {
	if snap.Sequence <= r.lastSequence {
		return fmt.Errorf("%w: sequence %d <= last applied %d", ErrStale, snap.Sequence, r.lastSequence)
	}
	if snap.View == nil {
		return fmt.Errorf("%w: missing view", ErrMalformed)
	}
	if err := snap.View.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Apply overwrites the replica with snap and returns the observable fields
// that differ from the prior state. Stale, duplicate or malformed snapshots
// are discarded: the replica is left unchanged and Apply returns 0.
func (r *ReplicaState) Apply(snap Snapshot) Changed {
	if r.Check(snap) != nil {
		return 0
	}
	changed := Diff(r.view, snap.View)
	r.view = snap.View.clone()
	r.lastSequence = snap.Sequence
	return changed
}

// Apply applies snap to replica; see ReplicaState.Apply.
func Apply(replica *ReplicaState, snap Snapshot) Changed {
	return replica.Apply(snap)
}

// Diff returns the observable fields that differ between prev and next. A
// nil prev or a variant change reports ChangedKind plus every field of next.
//
// Precondition: next must be non-nil.
func Diff(prev, next View) Changed {
	if prev == nil || prev.Kind() != next.Kind() {
		return ChangedKind | allFields(next)
	}
	var c Changed
	switch n := next.(type) {
	case BatteryView:
		p := prev.(BatteryView)
		c |= flag(p.Charge != n.Charge, ChangedCharge)
		c |= flag(p.Capacity != n.Capacity, ChangedCapacity)
	case BoltActionView:
		p := prev.(BoltActionView)
		c |= flag(p.Chamber != n.Chamber, ChangedChamber)
		c |= flag(!cellsEqual(p.Cells, n.Cells), ChangedCells)
		c |= flag(p.BoltOpen != n.BoltOpen, ChangedBolt)
		c |= flag(p.ShotsLeft != n.ShotsLeft, ChangedShotsLeft)
	case PumpView:
		p := prev.(PumpView)
		c |= flag(p.Chamber != n.Chamber, ChangedChamber)
		c |= flag(!boolsEqual(p.Cells, n.Cells), ChangedCells)
	case MagazineView:
		p := prev.(MagazineView)
		c |= flag(p.Chambered != n.Chambered, ChangedChambered)
		c |= flag((p.Mag == nil) != (n.Mag == nil), ChangedMagazine)
		c |= flag(p.Mag != nil && n.Mag != nil && *p.Mag != *n.Mag, ChangedMagCount)
		c |= flag(p.AutoEjects != n.AutoEjects, ChangedAutoEject)
	case RevolverView:
		p := prev.(RevolverView)
		c |= flag(!cellsEqual(p.Cells, n.Cells), ChangedCells)
		c |= flag(p.CurrentSlot != n.CurrentSlot, ChangedSlot)
	default:
		panic(fmt.Sprintf("replication: Diff: unknown view %T", n))
	}
	return c
}

func allFields(v View) Changed {
	switch v.(type) {
	case BatteryView:
		return ChangedCharge | ChangedCapacity
	case BoltActionView:
		return ChangedChamber | ChangedCells | ChangedBolt | ChangedShotsLeft
	case PumpView:
		return ChangedChamber | ChangedCells
	case MagazineView:
		return ChangedChambered | ChangedMagazine | ChangedMagCount | ChangedAutoEject
	case RevolverView:
		return ChangedCells | ChangedSlot
	default:
		panic(fmt.Sprintf("replication: unknown view %T", v))
	}
}

func flag(cond bool, f Changed) Changed {
	if cond {
		return f
	}
	return 0
}
