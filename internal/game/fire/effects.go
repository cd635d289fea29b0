// Package fire executes trigger pulls and the other player-facing firearm
// commands against a firearm.State, returning the resulting intents (sound,
// recoil, muzzle flash) for an outside collaborator to carry out.
package fire

import "fmt"

// SoundKind names an abstract sound the caller should play.
type SoundKind uint8

const (
	// SoundGunshot plays when a live round fires.
	SoundGunshot SoundKind = iota + 1
	// SoundEmpty plays on a dry fire.
	SoundEmpty
	// SoundBoltOpen plays when a bolt opens or locks open.
	SoundBoltOpen
	// SoundBoltClosed plays when a bolt closes.
	SoundBoltClosed
	// SoundRack plays on a manual cycle.
	SoundRack
	// SoundInsert plays when a single round is loaded.
	SoundInsert
	// SoundMagInsert plays when a magazine is seated.
	SoundMagInsert
	// SoundMagEject plays when a magazine is removed by hand.
	SoundMagEject
	// SoundAutoEject plays when an emptied magazine drops on its own.
	SoundAutoEject
	// SoundSpin plays when a cylinder is spun.
	SoundSpin
)

var soundNames = map[SoundKind]string{
	SoundGunshot:    "gunshot",
	SoundEmpty:      "empty",
	SoundBoltOpen:   "bolt_open",
	SoundBoltClosed: "bolt_closed",
	SoundRack:       "rack",
	SoundInsert:     "insert",
	SoundMagInsert:  "mag_insert",
	SoundMagEject:   "mag_eject",
	SoundAutoEject:  "auto_eject",
	SoundSpin:       "spin",
}

// String returns the snake_case sound name.
func (k SoundKind) String() string {
	if name, ok := soundNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SoundKind(%d)", uint8(k))
}

// Strength is a recoil magnitude. Its scale belongs to the physics collaborator.
type Strength float64

// Intent is one side effect the caller must carry out. The set is closed:
// PlaySound, Recoil and MuzzleFlash.
type Intent interface {
	intent()
}

// PlaySound asks the audio collaborator to play Sound.
type PlaySound struct {
	Sound SoundKind
}

// Recoil asks the physics collaborator to kick the shooter.
type Recoil struct {
	Strength Strength
}

// MuzzleFlash asks the renderer to show a muzzle flash.
type MuzzleFlash struct{}

func (PlaySound) intent()   {}
func (Recoil) intent()      {}
func (MuzzleFlash) intent() {}

// Effects is the ordered list of intents produced by one command.
type Effects []Intent

// Sounds returns the sounds in e, in order.
func (e Effects) Sounds() []SoundKind {
	var out []SoundKind
	for _, in := range e {
		if s, ok := in.(PlaySound); ok {
			out = append(out, s.Sound)
		}
	}
	return out
}

// Fired reports whether e contains a gunshot.
func (e Effects) Fired() bool {
	for _, s := range e.Sounds() {
		if s == SoundGunshot {
			return true
		}
	}
	return false
}

// Executor carries out intents against the audio, physics and rendering
// collaborators.
type Executor interface {
	PlaySound(sound SoundKind)
	Recoil(strength Strength)
	MuzzleFlash()
}

// Apply hands every intent in e to x, in order.
//
// Precondition: x must be non-nil.
func (e Effects) Apply(x Executor) {
	for _, in := range e {
		switch v := in.(type) {
		case PlaySound:
			x.PlaySound(v.Sound)
		case Recoil:
			x.Recoil(v.Strength)
		case MuzzleFlash:
			x.MuzzleFlash()
		default:
			panic(fmt.Sprintf("fire: Effects.Apply: unknown intent %T", v))
		}
	}
}
