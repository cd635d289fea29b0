package firearm

// Kind names a feed mechanism variant. The string form is used in YAML
// firearm definitions.
type Kind string

const (
	// KindBattery is an internal charge pool with no discrete rounds.
	KindBattery Kind = "battery"
	// KindBoltAction is a bolt-operated chamber fed from a LIFO stack.
	KindBoltAction Kind = "bolt_action"
	// KindPump is a tube-fed chamber racked by hand.
	KindPump Kind = "pump"
	// KindMagazine is a chamber fed from a detachable counted magazine.
	KindMagazine Kind = "magazine"
	// KindRevolver is a fixed ring of cylinder slots.
	KindRevolver Kind = "revolver"
)

// Kinds lists every mechanism variant.
var Kinds = []Kind{KindBattery, KindBoltAction, KindPump, KindMagazine, KindRevolver}

// Valid reports whether k names a known mechanism.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Mechanism is the closed set of feed mechanism variants: *Battery,
// *BoltAction, *Pump, *Magazine and *Revolver. Callers switch on the concrete
// type; no other implementations exist.
type Mechanism interface {
	// Kind returns the variant tag.
	Kind() Kind
	// Capacity returns the immutable reserve capacity.
	Capacity() uint32

	sealed()
}

func (*Battery) sealed()    {}
func (*BoltAction) sealed() {}
func (*Pump) sealed()       {}
func (*Magazine) sealed()   {}
func (*Revolver) sealed()   {}

// FireOutcome reports the result of a single trigger pull at the firing
// position.
type FireOutcome struct {
	// Fired is true when a live round was consumed.
	Fired bool
	// Before is the firing-position cell before the attempt.
	Before AmmoCell
}

// DryFire reports whether the attempt found no live round.
func (o FireOutcome) DryFire() bool { return !o.Fired }

func fired() FireOutcome { return FireOutcome{Fired: true, Before: CellLive} }

func dryFire(before AmmoCell) FireOutcome { return FireOutcome{Before: before} }

// CycleResult describes what a cycle did so callers can react to it.
type CycleResult struct {
	// Ejected is the chamber content removed by the cycle (CellAbsent if none).
	Ejected AmmoCell
	// Fed is true when a round was moved into the firing position.
	Fed bool
	// BoltLocked is true when a manual cycle found nothing to chamber and
	// locked the bolt open.
	BoltLocked bool
	// MagazineEjected is true when an emptied magazine was auto-ejected.
	MagazineEjected bool
}
