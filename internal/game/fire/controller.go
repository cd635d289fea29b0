package fire

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
	"github.com/cory-johannsen/gunfeed/internal/game/random"
)

// Fire pulls the trigger once.
//
// A dry fire yields only SoundEmpty. A live shot yields a gunshot, a muzzle
// flash and recoil of the given strength, then cycles immediately when the
// weapon auto-cycles. A revolver cylinder advances after every pull, live or
// dry, independent of auto-cycle.
//
// Precondition: s must be non-nil.
func Fire(s *firearm.State, recoil Strength) Effects {
	var fx Effects
	out := s.TryFire()
	if out.DryFire() {
		fx = Effects{PlaySound{Sound: SoundEmpty}}
	} else {
		fx = Effects{
			PlaySound{Sound: SoundGunshot},
			MuzzleFlash{},
			Recoil{Strength: recoil},
		}
		if s.AutoCycle() {
			res := s.Cycle(false)
			if res.MagazineEjected {
				fx = append(fx, PlaySound{Sound: SoundAutoEject})
			}
		}
	}
	s.Advance()
	return fx
}

// InsertRound is a single round offered for loading.
type InsertRound struct {
	Cell    firearm.AmmoCell
	Caliber firearm.Caliber
}

// InsertMag is a detachable magazine offered for seating. An empty Caliber
// or Type fits any weapon.
type InsertMag struct {
	Count   uint32
	Max     uint32
	Caliber firearm.Caliber
	Type    firearm.MagazineType
}

// Controller executes firearm commands and translates their results into
// Effects. Randomness for cylinder spins comes from the injected Source.
//
// A Controller holds no per-weapon state and may serve any number of weapons
// on the simulation goroutine.
type Controller struct {
	src    random.Source
	logger *zap.Logger
}

// NewController creates a Controller.
//
// Precondition: src and logger must be non-nil.
func NewController(src random.Source, logger *zap.Logger) *Controller {
	if src == nil {
		panic("fire: NewController: src must not be nil")
	}
	if logger == nil {
		panic("fire: NewController: logger must not be nil")
	}
	return &Controller{src: src, logger: logger}
}

// Fire pulls the trigger once; see the package-level Fire.
func (c *Controller) Fire(s *firearm.State, recoil Strength) Effects {
	fx := Fire(s, recoil)
	c.logger.Debug("trigger pulled",
		zap.String("mechanism", string(s.Kind())),
		zap.Bool("fired", fx.Fired()),
		zap.Uint32("shots_left", s.ShotsLeft()),
	)
	return fx
}

// CycleManual racks the weapon by hand.
//
// Postcondition: emits SoundBoltOpen when the cycle locked the bolt open,
// SoundRack otherwise, plus SoundAutoEject when a magazine dropped.
func (c *Controller) CycleManual(s *firearm.State) Effects {
	res := s.Cycle(true)
	var fx Effects
	if res.BoltLocked {
		fx = append(fx, PlaySound{Sound: SoundBoltOpen})
	} else {
		fx = append(fx, PlaySound{Sound: SoundRack})
	}
	if res.MagazineEjected {
		fx = append(fx, PlaySound{Sound: SoundAutoEject})
	}
	return fx
}

// SetBolt opens or closes a bolt.
//
// Postcondition: ok is false and fx empty when the weapon has no bolt or it
// is already in the requested state.
func (c *Controller) SetBolt(s *firearm.State, open bool) (fx Effects, ok bool) {
	if !s.SetBolt(open) {
		return nil, false
	}
	if open {
		return Effects{PlaySound{Sound: SoundBoltOpen}}, true
	}
	return Effects{PlaySound{Sound: SoundBoltClosed}}, true
}

// Spin spins a revolver cylinder using the controller's Source.
//
// Postcondition: ok is false for non-revolvers.
func (c *Controller) Spin(s *firearm.State) (fx Effects, slot int, ok bool) {
	slot, ok = s.Spin(c.src)
	if !ok {
		return nil, 0, false
	}
	return Effects{PlaySound{Sound: SoundSpin}}, slot, true
}

// Insert loads one round after checking its caliber.
//
// Postcondition: ok is false and the state unchanged when the caliber does
// not match or the mechanism rejects the round.
func (c *Controller) Insert(s *firearm.State, round InsertRound) (fx Effects, ok bool) {
	if !s.Caliber().Accepts(round.Caliber) {
		c.logger.Debug("round rejected",
			zap.String("weapon_caliber", string(s.Caliber())),
			zap.String("round_caliber", string(round.Caliber)),
		)
		return nil, false
	}
	if !s.Insert(round.Cell) {
		return nil, false
	}
	return Effects{PlaySound{Sound: SoundInsert}}, true
}

// EjectAll dumps every held round. It produces no intents.
func (c *Controller) EjectAll(s *firearm.State) Effects {
	s.EjectAll()
	return nil
}

// InsertMagazine seats a magazine after checking its caliber and type.
//
// Postcondition: ok is false and the state unchanged when the caliber or
// magazine type does not fit or the mechanism rejects the magazine.
func (c *Controller) InsertMagazine(s *firearm.State, mag InsertMag) (fx Effects, ok bool) {
	if !s.Caliber().Accepts(mag.Caliber) || !s.AcceptsMagazineType(mag.Type) {
		c.logger.Debug("magazine rejected",
			zap.String("weapon_caliber", string(s.Caliber())),
			zap.String("magazine_caliber", string(mag.Caliber)),
			zap.String("magazine_type", string(mag.Type)),
		)
		return nil, false
	}
	if !s.InsertMagazine(mag.Count, mag.Max) {
		return nil, false
	}
	return Effects{PlaySound{Sound: SoundMagInsert}}, true
}

// RemoveMagazine detaches the seated magazine.
func (c *Controller) RemoveMagazine(s *firearm.State) (fx Effects, mag firearm.Mag, ok bool) {
	mag, ok = s.RemoveMagazine()
	if !ok {
		return nil, firearm.Mag{}, false
	}
	return Effects{PlaySound{Sound: SoundMagEject}}, mag, true
}
