package firearm

import (
	"fmt"
	"slices"
)

// Mag is a detachable magazine tracked as an opaque round count.
//
// Invariant: 0 <= Count <= Max.
type Mag struct {
	// Count is the number of live rounds in the magazine.
	Count uint32
	// Max is the most rounds the magazine can hold.
	Max uint32
}

// MagazineType tags a family of detachable magazines, such as "pistol" or
// "drum". The empty type is untagged.
type MagazineType string

// IsEmpty reports whether the magazine holds no rounds.
func (m Mag) IsEmpty() bool { return m.Count == 0 }

// Magazine is a single chamber fed from a detachable magazine.
//
// Invariant: mag == nil or mag.Count <= mag.Max <= capacity.
type Magazine struct {
	capacity     uint32
	chambered    bool
	mag          *Mag
	autoEjectMag bool
	types        []MagazineType
	autoEjects   uint32
}

// NewMagazine returns an unchambered Magazine with no magazine inserted.
//
// Precondition: capacity > 0 (panics otherwise).
func NewMagazine(capacity uint32, autoEjectMag bool) *Magazine {
	if capacity == 0 {
		panic("firearm: NewMagazine: capacity must be > 0")
	}
	return &Magazine{capacity: capacity, autoEjectMag: autoEjectMag}
}

// WithTypes restricts the magazines this weapon seats to types and returns
// m. With no types every magazine fits.
func (m *Magazine) WithTypes(types ...MagazineType) *Magazine {
	m.types = slices.Clone(types)
	return m
}

// Types returns a copy of the accepted magazine types; nil accepts any.
func (m *Magazine) Types() []MagazineType { return slices.Clone(m.types) }

// AcceptsType reports whether a magazine of type t fits. An untagged
// magazine or an unrestricted weapon always fits.
func (m *Magazine) AcceptsType(t MagazineType) bool {
	return len(m.types) == 0 || t == "" || slices.Contains(m.types, t)
}

// Kind returns KindMagazine.
func (m *Magazine) Kind() Kind { return KindMagazine }

// Capacity returns the largest magazine the weapon accepts.
func (m *Magazine) Capacity() uint32 { return m.capacity }

// Chambered reports whether a live round sits in the chamber.
func (m *Magazine) Chambered() bool { return m.chambered }

// AutoEjectMag reports whether emptied magazines drop on cycle.
func (m *Magazine) AutoEjectMag() bool { return m.autoEjectMag }

// AutoEjects counts the magazines dropped by Cycle. It only grows.
func (m *Magazine) AutoEjects() uint32 { return m.autoEjects }

// Mag returns a copy of the inserted magazine and whether one is present.
func (m *Magazine) Mag() (Mag, bool) {
	if m.mag == nil {
		return Mag{}, false
	}
	return *m.mag, true
}

// ShotsLeft returns the magazine count, or zero without a magazine.
func (m *Magazine) ShotsLeft() uint32 {
	if m.mag == nil {
		return 0
	}
	return m.mag.Count
}

// TryFire consumes the chambered round. The spent casing is not tracked, so
// the chamber reads as empty afterwards.
func (m *Magazine) TryFire() FireOutcome {
	if !m.chambered {
		return dryFire(CellAbsent)
	}
	m.chambered = false
	return fired()
}

// Cycle ejects the chamber and feeds one round from the magazine. When
// auto-eject is enabled and the magazine is left empty it is dropped.
func (m *Magazine) Cycle(bool) CycleResult {
	var res CycleResult
	if m.chambered {
		res.Ejected = CellLive
	}
	m.chambered = false
	if m.mag != nil && m.mag.Count > 0 {
		m.mag.Count--
		m.chambered = true
		res.Fed = true
	}
	if m.autoEjectMag && m.mag != nil && m.mag.IsEmpty() {
		m.mag = nil
		m.autoEjects++
		res.MagazineEjected = true
	}
	return res
}

// Insert loads one live round into the inserted magazine.
//
// Postcondition: returns false and changes nothing when round is not live,
// no magazine is present, or the magazine is full.
func (m *Magazine) Insert(round AmmoCell) bool {
	if round != CellLive || m.mag == nil || m.mag.Count >= m.mag.Max {
		return false
	}
	m.mag.Count++
	return true
}

// InsertMagazine seats a magazine holding count of max rounds.
//
// Postcondition: returns false and changes nothing when a magazine is already
// seated, max is zero or exceeds capacity, or count exceeds max.
func (m *Magazine) InsertMagazine(count, max uint32) bool {
	if m.mag != nil || max == 0 || max > m.capacity || count > max {
		return false
	}
	m.mag = &Mag{Count: count, Max: max}
	return true
}

// RemoveMagazine detaches the seated magazine. The chamber is unaffected.
func (m *Magazine) RemoveMagazine() (Mag, bool) {
	if m.mag == nil {
		return Mag{}, false
	}
	out := *m.mag
	m.mag = nil
	return out, true
}

// EjectAll clears the chamber and empties the seated magazine in place.
func (m *Magazine) EjectAll() {
	m.chambered = false
	if m.mag != nil {
		m.mag.Count = 0
	}
}

func (m *Magazine) check() error {
	if m.mag == nil {
		return nil
	}
	if m.mag.Count > m.mag.Max {
		return fmt.Errorf("magazine count %d exceeds max %d", m.mag.Count, m.mag.Max)
	}
	if m.mag.Max > m.capacity {
		return fmt.Errorf("magazine max %d exceeds capacity %d", m.mag.Max, m.capacity)
	}
	return nil
}
