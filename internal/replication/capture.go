package replication

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
)

// Capture copies the observable fields of s. Internal bookkeeping such as
// the bolt action's unspawned counter is never exposed; the derived shots
// left count is captured in its place.
//
// Precondition: s must be non-nil.
// Postcondition: the returned View shares no memory with s.
func Capture(s *firearm.State) View {
	switch m := s.Mechanism().(type) {
	case *firearm.Battery:
		return BatteryView{Charge: m.Charge(), Capacity: m.Capacity()}
	case *firearm.BoltAction:
		return BoltActionView{
			Chamber:   m.Chamber(),
			Cells:     cloneCells(m.Reserve()),
			BoltOpen:  m.BoltOpen(),
			ShotsLeft: m.ShotsLeft(),
		}
	case *firearm.Pump:
		return PumpView{Chamber: m.Chamber(), Cells: cloneBools(m.Reserve())}
	case *firearm.Magazine:
		v := MagazineView{Chambered: m.Chambered(), AutoEjects: m.AutoEjects()}
		if mag, ok := m.Mag(); ok {
			v.Mag = &mag
		}
		return v
	case *firearm.Revolver:
		return RevolverView{Cells: m.Cells(), CurrentSlot: m.CurrentSlot()}
	default:
		panic(fmt.Sprintf("replication: Capture: unknown mechanism %T", m))
	}
}

// Publisher stamps captures of one firearm instance with a strictly
// increasing sequence number. It belongs to the authoritative side.
type Publisher struct {
	instance uuid.UUID
	seq      uint64
}

// NewPublisher returns a Publisher for instance whose first snapshot carries
// sequence 1.
func NewPublisher(instance uuid.UUID) *Publisher {
	return &Publisher{instance: instance}
}

// Instance returns the firearm instance id.
func (p *Publisher) Instance() uuid.UUID { return p.instance }

// Sequence returns the sequence of the last snapshot produced, 0 if none.
func (p *Publisher) Sequence() uint64 { return p.seq }

// Capture snapshots s with the next sequence number.
//
// Postcondition: result.Sequence == previous Sequence()+1.
func (p *Publisher) Capture(s *firearm.State) Snapshot {
	p.seq++
	return Snapshot{Instance: p.instance, Sequence: p.seq, View: Capture(s)}
}
