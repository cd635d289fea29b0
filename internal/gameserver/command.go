package gameserver

import (
	"github.com/cory-johannsen/gunfeed/internal/game/fire"
	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
)

// Command is a player action addressed to one firearm. The set is closed:
// Fire, CycleManual, SetBolt, Spin, Insert, EjectAll, InsertMagazine,
// RemoveMagazine, Recharge.
type Command interface {
	// Name returns the snake_case command name used in logs.
	Name() string
	command()
}

// Fire pulls the trigger.
type Fire struct{}

// CycleManual racks the weapon by hand.
type CycleManual struct{}

// SetBolt opens or closes a bolt.
type SetBolt struct {
	Open bool
}

// Spin spins a revolver cylinder.
type Spin struct{}

// Insert loads a single round.
type Insert struct {
	Round fire.InsertRound
}

// EjectAll dumps every held round.
type EjectAll struct{}

// InsertMagazine seats a detachable magazine. Caliber and Type are checked
// against the weapon; empty values fit anything.
type InsertMagazine struct {
	Count   uint32
	Max     uint32
	Caliber firearm.Caliber
	Type    firearm.MagazineType
}

// RemoveMagazine detaches the seated magazine.
type RemoveMagazine struct{}

// Recharge restores charge to a battery weapon.
type Recharge struct {
	Amount uint32
}

// Name returns "fire".
func (Fire) Name() string { return "fire" }

// Name returns "cycle_manual".
func (CycleManual) Name() string { return "cycle_manual" }

// Name returns "set_bolt".
func (SetBolt) Name() string { return "set_bolt" }

// Name returns "spin".
func (Spin) Name() string { return "spin" }

// Name returns "insert".
func (Insert) Name() string { return "insert" }

// Name returns "eject_all".
func (EjectAll) Name() string { return "eject_all" }

// Name returns "insert_magazine".
func (InsertMagazine) Name() string { return "insert_magazine" }

// Name returns "remove_magazine".
func (RemoveMagazine) Name() string { return "remove_magazine" }

// Name returns "recharge".
func (Recharge) Name() string { return "recharge" }

func (Fire) command()           {}
func (CycleManual) command()    {}
func (SetBolt) command()        {}
func (Spin) command()           {}
func (Insert) command()         {}
func (EjectAll) command()       {}
func (InsertMagazine) command() {}
func (RemoveMagazine) command() {}
func (Recharge) command()       {}

// execute runs cmd against f through ctrl.
//
// Postcondition: accepted is false when the firearm rejected the command;
// fx holds the intents to carry out either way.
func execute(ctrl *fire.Controller, f *Firearm, cmd Command) (fx fire.Effects, accepted bool) {
	s := f.State
	switch c := cmd.(type) {
	case Fire:
		return ctrl.Fire(s, fire.Strength(f.Def.Recoil)), true
	case CycleManual:
		return ctrl.CycleManual(s), true
	case SetBolt:
		return ctrl.SetBolt(s, c.Open)
	case Spin:
		fx, _, ok := ctrl.Spin(s)
		return fx, ok
	case Insert:
		return ctrl.Insert(s, c.Round)
	case EjectAll:
		return ctrl.EjectAll(s), true
	case InsertMagazine:
		return ctrl.InsertMagazine(s, fire.InsertMag{Count: c.Count, Max: c.Max, Caliber: c.Caliber, Type: c.Type})
	case RemoveMagazine:
		fx, _, ok := ctrl.RemoveMagazine(s)
		return fx, ok
	case Recharge:
		return nil, s.Recharge(c.Amount) > 0
	default:
		return nil, false
	}
}
