// Package firearm models the ammunition feed-and-fire mechanism of ranged
// weapons: individual ammunition cells, the five feed mechanisms, and the
// State wrapper that dispatches the uniform fire/cycle/reload/bolt protocol.
//
// Nothing in this package performs side effects. Sound, recoil and muzzle
// flash are emitted by the fire package from the results returned here.
package firearm

import "fmt"

// AmmoCell is the smallest unit of ammunition state.
//
// The zero value is CellAbsent, so an AmmoCell doubles as an optional round
// position: a chamber or cylinder slot holding CellAbsent holds nothing.
type AmmoCell uint8

const (
	// CellAbsent means no round is present.
	CellAbsent AmmoCell = iota
	// CellLive is a round that can fire.
	CellLive
	// CellSpent is a fired, inert casing.
	CellSpent
)

// String returns the lowercase name of the cell state.
func (c AmmoCell) String() string {
	switch c {
	case CellAbsent:
		return "absent"
	case CellLive:
		return "live"
	case CellSpent:
		return "spent"
	default:
		return fmt.Sprintf("AmmoCell(%d)", uint8(c))
	}
}

// Valid reports whether c is one of the three defined states.
func (c AmmoCell) Valid() bool {
	return c <= CellSpent
}

// Present reports whether a round (live or spent) occupies the position.
func (c AmmoCell) Present() bool {
	return c == CellLive || c == CellSpent
}

// Caliber tags ammunition compatibility. The empty caliber matches any round.
type Caliber string

// Accepts reports whether a round of caliber round may be loaded into a
// weapon of caliber c.
func (c Caliber) Accepts(round Caliber) bool {
	return c == "" || round == "" || c == round
}
