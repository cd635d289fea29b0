// Package replication keeps non-authoritative replicas of firearm state in
// step with the simulation. The authoritative side captures versioned
// snapshots of observable mechanism state; the replica side applies them
// last-writer-wins, discards stale or malformed deliveries, and reports which
// observable fields changed so sound and animation fire only on real changes.
package replication

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
)

// View is the observable state of one feed mechanism variant. The set is
// closed: BatteryView, BoltActionView, PumpView, MagazineView, RevolverView.
type View interface {
	// Kind returns the variant tag.
	Kind() firearm.Kind
	// Equal reports whether other holds identical observable fields.
	Equal(other View) bool

	clone() View
	validate() error
}

// BatteryView is the observable state of a firearm.Battery.
type BatteryView struct {
	Charge   uint32
	Capacity uint32
}

// BoltActionView is the observable state of a firearm.BoltAction. Cells is
// the materialized reserve, top first. ShotsLeft is the derived count
// including unmaterialized rounds.
type BoltActionView struct {
	Chamber   firearm.AmmoCell
	Cells     []firearm.AmmoCell
	BoltOpen  bool
	ShotsLeft uint32
}

// PumpView is the observable state of a firearm.Pump. Cells is the tube
// contents, top first; true is a live round.
type PumpView struct {
	Chamber firearm.AmmoCell
	Cells   []bool
}

// MagazineView is the observable state of a firearm.Magazine. Mag is nil
// when no magazine is seated. AutoEjects counts magazines dropped by cycling,
// which lets a viewer tell an automatic drop from a manual removal.
type MagazineView struct {
	Chambered  bool
	Mag        *firearm.Mag
	AutoEjects uint32
}

// RevolverView is the observable state of a firearm.Revolver.
type RevolverView struct {
	Cells       []firearm.AmmoCell
	CurrentSlot int
}

// Snapshot is a versioned copy of one firearm's observable state.
//
// Invariant: Sequence increases strictly per Instance.
type Snapshot struct {
	Instance uuid.UUID
	Sequence uint64
	View     View
}

// Kind returns firearm.KindBattery.
func (BatteryView) Kind() firearm.Kind { return firearm.KindBattery }

// Kind returns firearm.KindBoltAction.
func (BoltActionView) Kind() firearm.Kind { return firearm.KindBoltAction }

// Kind returns firearm.KindPump.
func (PumpView) Kind() firearm.Kind { return firearm.KindPump }

// Kind returns firearm.KindMagazine.
func (MagazineView) Kind() firearm.Kind { return firearm.KindMagazine }

// Kind returns firearm.KindRevolver.
func (RevolverView) Kind() firearm.Kind { return firearm.KindRevolver }

// Equal reports whether other is a BatteryView with the same charge and
// capacity.
func (v BatteryView) Equal(other View) bool {
	o, ok := other.(BatteryView)
	return ok && v == o
}

// Equal reports whether other is a BoltActionView with the same chamber,
// reserve, bolt flag and shots left. A nil and an empty reserve are equal.
func (v BoltActionView) Equal(other View) bool {
	o, ok := other.(BoltActionView)
	return ok && v.Chamber == o.Chamber && v.BoltOpen == o.BoltOpen &&
		v.ShotsLeft == o.ShotsLeft && cellsEqual(v.Cells, o.Cells)
}

// Equal reports whether other is a PumpView with the same chamber and tube.
func (v PumpView) Equal(other View) bool {
	o, ok := other.(PumpView)
	return ok && v.Chamber == o.Chamber && boolsEqual(v.Cells, o.Cells)
}

// Equal reports whether other is a MagazineView with the same chamber flag,
// auto-eject count and seated magazine, compared by value.
func (v MagazineView) Equal(other View) bool {
	o, ok := other.(MagazineView)
	return ok && v.Chambered == o.Chambered && v.AutoEjects == o.AutoEjects && magEqual(v.Mag, o.Mag)
}

// Equal reports whether other is a RevolverView with the same cylinder and
// firing position.
func (v RevolverView) Equal(other View) bool {
	o, ok := other.(RevolverView)
	return ok && v.CurrentSlot == o.CurrentSlot && cellsEqual(v.Cells, o.Cells)
}

func (v BatteryView) clone() View { return v }

func (v BoltActionView) clone() View {
	v.Cells = cloneCells(v.Cells)
	return v
}

func (v PumpView) clone() View {
	v.Cells = cloneBools(v.Cells)
	return v
}

func (v MagazineView) clone() View {
	if v.Mag != nil {
		m := *v.Mag
		v.Mag = &m
	}
	return v
}

func (v RevolverView) clone() View {
	v.Cells = cloneCells(v.Cells)
	return v
}

func (v BatteryView) validate() error {
	if v.Charge > v.Capacity {
		return fmt.Errorf("battery charge %d exceeds capacity %d", v.Charge, v.Capacity)
	}
	return nil
}

func (v BoltActionView) validate() error {
	if !v.Chamber.Valid() {
		return fmt.Errorf("bolt action chamber %d invalid", v.Chamber)
	}
	if v.BoltOpen && v.Chamber != firearm.CellAbsent {
		return fmt.Errorf("bolt action open with chamber %s", v.Chamber)
	}
	for i, c := range v.Cells {
		if !c.Present() {
			return fmt.Errorf("bolt action reserve cell %d is %s", i, c)
		}
	}
	if uint32(len(v.Cells)) > v.ShotsLeft {
		return fmt.Errorf("bolt action reserve of %d exceeds shots left %d", len(v.Cells), v.ShotsLeft)
	}
	return nil
}

func (v PumpView) validate() error {
	if !v.Chamber.Valid() {
		return fmt.Errorf("pump chamber %d invalid", v.Chamber)
	}
	return nil
}

func (v MagazineView) validate() error {
	if v.Mag != nil && v.Mag.Count > v.Mag.Max {
		return fmt.Errorf("magazine count %d exceeds max %d", v.Mag.Count, v.Mag.Max)
	}
	return nil
}

func (v RevolverView) validate() error {
	if len(v.Cells) == 0 {
		return fmt.Errorf("revolver has no cylinder slots")
	}
	if v.CurrentSlot < 0 || v.CurrentSlot >= len(v.Cells) {
		return fmt.Errorf("revolver slot %d out of range [0, %d)", v.CurrentSlot, len(v.Cells))
	}
	for i, c := range v.Cells {
		if !c.Valid() {
			return fmt.Errorf("revolver cell %d invalid value %d", i, c)
		}
	}
	return nil
}

func cloneCells(in []firearm.AmmoCell) []firearm.AmmoCell {
	if len(in) == 0 {
		return nil
	}
	return append([]firearm.AmmoCell(nil), in...)
}

func cloneBools(in []bool) []bool {
	if len(in) == 0 {
		return nil
	}
	return append([]bool(nil), in...)
}

func cellsEqual(a, b []firearm.AmmoCell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boolsEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func magEqual(a, b *firearm.Mag) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
