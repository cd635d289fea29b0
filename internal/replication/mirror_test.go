package replication_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/game/fire"
	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
	"github.com/cory-johannsen/gunfeed/internal/replication"
)

type soundRecorder struct {
	sounds []fire.SoundKind
}

func (r *soundRecorder) PlaySound(s fire.SoundKind) { r.sounds = append(r.sounds, s) }

func newMirror(t *testing.T) (*replication.Mirror, *soundRecorder, *replication.Codec) {
	codec := newCodec(t, replication.CompressionSnappy)
	rec := &soundRecorder{}
	return replication.NewMirror(codec, rec, zap.NewNop()), rec, codec
}

func TestMirror_BoltSoundsOnlyOnBoltChange(t *testing.T) {
	m, rec, codec := newMirror(t)
	s := firearm.NewState(firearm.NewBoltAction(5, 4, true), "", false)
	pub := replication.NewPublisher(uuid.New())

	id, changed := m.Receive(codec.Marshal(pub.Capture(s)))
	assert.Equal(t, pub.Instance(), id)
	assert.True(t, changed.Has(replication.ChangedKind))
	assert.Empty(t, rec.sounds, "first sync replays nothing")

	s.Cycle(false)
	s.TryFire()
	_, changed = m.Receive(codec.Marshal(pub.Capture(s)))
	assert.True(t, changed.Any())
	assert.Empty(t, rec.sounds, "ammunition changes replay nothing")

	s.SetBolt(true)
	m.Receive(codec.Marshal(pub.Capture(s)))
	assert.Equal(t, []fire.SoundKind{fire.SoundBoltOpen}, rec.sounds)

	s.Insert(firearm.CellLive)
	m.Receive(codec.Marshal(pub.Capture(s)))
	assert.Equal(t, []fire.SoundKind{fire.SoundBoltOpen}, rec.sounds, "bolt sound does not replay for unrelated fields")

	s.SetBolt(false)
	m.Receive(codec.Marshal(pub.Capture(s)))
	assert.Equal(t, []fire.SoundKind{fire.SoundBoltOpen, fire.SoundBoltClosed}, rec.sounds)
}

func TestMirror_MagazinePresenceSounds(t *testing.T) {
	m, rec, codec := newMirror(t)
	s := firearm.NewState(firearm.NewMagazine(10, false), "", true)
	pub := replication.NewPublisher(uuid.New())

	m.Receive(codec.Marshal(pub.Capture(s)))
	s.InsertMagazine(10, 10)
	m.Receive(codec.Marshal(pub.Capture(s)))
	s.Cycle(false)
	m.Receive(codec.Marshal(pub.Capture(s)))
	s.RemoveMagazine()
	m.Receive(codec.Marshal(pub.Capture(s)))

	assert.Equal(t, []fire.SoundKind{fire.SoundMagInsert, fire.SoundMagEject}, rec.sounds)
}

func TestMirror_AutoEjectReplaysAlarmNotRemoval(t *testing.T) {
	m, rec, codec := newMirror(t)
	s := firearm.NewState(firearm.NewMagazine(10, true), "", true)
	pub := replication.NewPublisher(uuid.New())

	s.InsertMagazine(1, 10)
	m.Receive(codec.Marshal(pub.Capture(s)))
	s.Cycle(false)
	_, changed := m.Receive(codec.Marshal(pub.Capture(s)))
	assert.True(t, changed.Has(replication.ChangedMagazine|replication.ChangedAutoEject))
	assert.Equal(t, []fire.SoundKind{fire.SoundAutoEject}, rec.sounds)

	s.InsertMagazine(5, 10)
	m.Receive(codec.Marshal(pub.Capture(s)))
	s.RemoveMagazine()
	m.Receive(codec.Marshal(pub.Capture(s)))
	assert.Equal(t, []fire.SoundKind{fire.SoundAutoEject, fire.SoundMagInsert, fire.SoundMagEject}, rec.sounds,
		"a manual removal keeps the eject sound")

	view, _, ok := m.Replica(pub.Instance())
	require.True(t, ok)
	assert.Equal(t, uint32(1), view.(replication.MagazineView).AutoEjects)
}

func TestChangeSounds_AutoEjectBetweenSnapshots(t *testing.T) {
	prev := replication.MagazineView{Mag: &firearm.Mag{Count: 1, Max: 10}}
	next := replication.MagazineView{Chambered: true, Mag: &firearm.Mag{Count: 10, Max: 10}, AutoEjects: 1}
	changed := replication.Diff(prev, next)
	assert.False(t, changed.Has(replication.ChangedMagazine), "a magazine is seated in both views")
	assert.Equal(t, []fire.SoundKind{fire.SoundAutoEject}, replication.ChangeSounds(prev, next, changed))
}

func TestMirror_DiscardsOutOfOrderAndDuplicates(t *testing.T) {
	m, rec, codec := newMirror(t)
	s := firearm.NewState(firearm.NewBoltAction(5, 4, true), "", false)
	pub := replication.NewPublisher(uuid.New())

	first := codec.Marshal(pub.Capture(s))
	s.SetBolt(true)
	second := codec.Marshal(pub.Capture(s))

	m.Receive(second)
	_, changed := m.Receive(second)
	assert.False(t, changed.Any())
	_, changed = m.Receive(first)
	assert.False(t, changed.Any())
	assert.Empty(t, rec.sounds)

	view, seq, ok := m.Replica(pub.Instance())
	require.True(t, ok)
	assert.Equal(t, uint64(2), seq)
	assert.True(t, view.(replication.BoltActionView).BoltOpen)
}

func TestMirror_DiscardsGarbage(t *testing.T) {
	m, _, _ := newMirror(t)
	id, changed := m.Receive([]byte{0, 0xff})
	assert.Equal(t, uuid.Nil, id)
	assert.False(t, changed.Any())
	assert.Empty(t, m.IDs())
}

func TestMirror_TracksInstancesIndependently(t *testing.T) {
	m, _, codec := newMirror(t)
	a := replication.NewPublisher(uuid.New())
	b := replication.NewPublisher(uuid.New())
	battery := firearm.NewState(firearm.NewBattery(4, 4), "", false)
	revolver := firearm.NewState(firearm.NewRevolver(6), "", false)

	m.Receive(codec.Marshal(a.Capture(battery)))
	m.Receive(codec.Marshal(b.Capture(revolver)))
	assert.Len(t, m.IDs(), 2)

	battery.TryFire()
	_, changed := m.Receive(codec.Marshal(a.Capture(battery)))
	assert.Equal(t, replication.ChangedCharge, changed)

	view, _, ok := m.Replica(a.Instance())
	require.True(t, ok)
	assert.Equal(t, replication.BatteryView{Charge: 3, Capacity: 4}, view)
	_, _, ok = m.Replica(uuid.New())
	assert.False(t, ok)
}

func TestMirror_ResetTreatsNextSnapshotAsFirstSync(t *testing.T) {
	m, rec, codec := newMirror(t)
	s := firearm.NewState(firearm.NewBoltAction(5, 4, true), "", false)
	pub := replication.NewPublisher(uuid.New())
	m.Receive(codec.Marshal(pub.Capture(s)))

	m.Reset()
	assert.Empty(t, m.IDs())

	s.SetBolt(true)
	_, changed := m.Receive(codec.Marshal(pub.Capture(s)))
	assert.True(t, changed.Has(replication.ChangedKind))
	assert.Empty(t, rec.sounds)
}

func TestChangeSounds_NoneOnKindChange(t *testing.T) {
	prev := replication.BoltActionView{}
	next := replication.MagazineView{Mag: &firearm.Mag{Count: 1, Max: 1}}
	assert.Empty(t, replication.ChangeSounds(prev, next, replication.Diff(prev, next)))
}
