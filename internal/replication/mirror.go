package replication

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/game/fire"
)

// SoundSink receives sound intents replayed on the viewer side.
type SoundSink interface {
	PlaySound(fire.SoundKind)
}

// Mirror maintains one ReplicaState per firearm instance from transport
// payloads and replays sounds only for observable changes.
//
// Receive may be called from any goroutine; replicas are guarded by one mutex.
type Mirror struct {
	codec  *Codec
	sink   SoundSink
	logger *zap.Logger

	mu       sync.Mutex
	replicas map[uuid.UUID]*ReplicaState
}

// NewMirror creates a Mirror.
//
// Precondition: codec and logger must be non-nil. sink may be nil to
// suppress sounds.
func NewMirror(codec *Codec, sink SoundSink, logger *zap.Logger) *Mirror {
	if codec == nil {
		panic("replication: NewMirror: codec must not be nil")
	}
	if logger == nil {
		panic("replication: NewMirror: logger must not be nil")
	}
	return &Mirror{
		codec:    codec,
		sink:     sink,
		logger:   logger,
		replicas: make(map[uuid.UUID]*ReplicaState),
	}
}

// Receive decodes payload and applies it to the matching replica, creating
// the replica on first sight. Undecodable, stale and duplicate payloads are
// logged at debug and discarded; they return a zero Changed.
func (m *Mirror) Receive(payload []byte) (uuid.UUID, Changed) {
	snap, err := m.codec.Unmarshal(payload)
	if err != nil {
		m.logger.Debug("discarding payload", zap.Int("bytes", len(payload)), zap.Error(err))
		return uuid.Nil, 0
	}

	m.mu.Lock()
	r, ok := m.replicas[snap.Instance]
	if !ok {
		r = &ReplicaState{}
		m.replicas[snap.Instance] = r
	}
	prev := r.view
	if err := r.Check(snap); err != nil {
		m.mu.Unlock()
		m.logger.Debug("discarding snapshot",
			zap.Stringer("instance", snap.Instance),
			zap.Uint64("sequence", snap.Sequence),
			zap.Uint64("last_applied", r.LastSequence()),
			zap.Error(err),
		)
		return snap.Instance, 0
	}
	changed := r.Apply(snap)
	m.mu.Unlock()

	m.logger.Debug("snapshot applied",
		zap.Stringer("instance", snap.Instance),
		zap.Uint64("sequence", snap.Sequence),
		zap.Stringer("changed", changed),
	)
	if m.sink != nil {
		for _, s := range ChangeSounds(prev, snap.View, changed) {
			m.sink.PlaySound(s)
		}
	}
	return snap.Instance, changed
}

// Reset forgets every replica. The next snapshot of each instance is treated
// as a first sync and replays nothing.
func (m *Mirror) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.replicas)
}

// Replica returns a copy of the current view for id.
//
// Postcondition: ok is false when no snapshot for id has been applied.
func (m *Mirror) Replica(id uuid.UUID) (view View, seq uint64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, found := m.replicas[id]
	if !found || r.view == nil {
		return nil, 0, false
	}
	return r.View(), r.LastSequence(), true
}

// IDs returns the instances with at least one applied snapshot, sorted.
func (m *Mirror) IDs() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.replicas))
	for id, r := range m.replicas {
		if r.view != nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// ChangeSounds returns the sounds a viewer replays for a transition from
// prev to next. A first sync or a variant change replays nothing. A bolt flag
// change replays the bolt sound. A grown auto-eject counter replays the
// auto-eject alarm in place of the removal sound; any other magazine presence
// change replays the insert or eject sound. Ammunition counts and cylinder
// position alone replay nothing; shots are heard through the authoritative
// gunshot intent.
func ChangeSounds(prev, next View, changed Changed) []fire.SoundKind {
	if prev == nil || changed.Has(ChangedKind) {
		return nil
	}
	var out []fire.SoundKind
	switch n := next.(type) {
	case BoltActionView:
		if changed.Has(ChangedBolt) {
			if n.BoltOpen {
				out = append(out, fire.SoundBoltOpen)
			} else {
				out = append(out, fire.SoundBoltClosed)
			}
		}
	case MagazineView:
		autoEjected := false
		if p, ok := prev.(MagazineView); ok && changed.Has(ChangedAutoEject) && n.AutoEjects > p.AutoEjects {
			autoEjected = true
			out = append(out, fire.SoundAutoEject)
		}
		if changed.Has(ChangedMagazine) {
			switch {
			case n.Mag != nil:
				out = append(out, fire.SoundMagInsert)
			case !autoEjected:
				out = append(out, fire.SoundMagEject)
			}
		}
	}
	return out
}
