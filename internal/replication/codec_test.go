package replication_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
	"github.com/cory-johannsen/gunfeed/internal/replication"
)

func newCodec(t testing.TB, compression string) *replication.Codec {
	c, err := replication.NewCodec(compression, 1<<16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestProperty_CodecRoundTrip(t *testing.T) {
	codecs := map[string]*replication.Codec{}
	for _, name := range []string{replication.CompressionNone, replication.CompressionSnappy, replication.CompressionZstd} {
		codecs[name] = newCodec(t, name)
	}
	rapid.Check(t, func(rt *rapid.T) {
		s := drawState(rt)
		pub := replication.NewPublisher(uuid.New())
		for i := rapid.IntRange(0, 3).Draw(rt, "skip"); i > 0; i-- {
			pub.Capture(s)
		}
		snap := pub.Capture(s)

		decoded, err := replication.Decode(replication.Encode(snap))
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if decoded.Instance != snap.Instance || decoded.Sequence != snap.Sequence || !decoded.View.Equal(snap.View) {
			rt.Fatalf("decoded %+v, want %+v", decoded, snap)
		}

		name := rapid.SampledFrom([]string{replication.CompressionNone, replication.CompressionSnappy, replication.CompressionZstd}).Draw(rt, "compression")
		out, err := codecs[name].Unmarshal(codecs[name].Marshal(snap))
		if err != nil {
			rt.Fatalf("%s unmarshal: %v", name, err)
		}
		if !out.View.Equal(snap.View) || out.Sequence != snap.Sequence {
			rt.Fatalf("%s round trip %+v, want %+v", name, out, snap)
		}
	})
}

func TestCodec_DecodesAnyHeader(t *testing.T) {
	snap := replication.Snapshot{
		Instance: uuid.New(),
		Sequence: 42,
		View:     replication.MagazineView{Chambered: true, Mag: &firearm.Mag{Count: 9, Max: 10}, AutoEjects: 2},
	}
	viewer := newCodec(t, replication.CompressionNone)
	for _, name := range []string{replication.CompressionSnappy, replication.CompressionZstd} {
		got, err := viewer.Unmarshal(newCodec(t, name).Marshal(snap))
		require.NoError(t, err, name)
		assert.True(t, got.View.Equal(snap.View), name)
	}
}

func TestNewCodec_RejectsUnknownCompression(t *testing.T) {
	_, err := replication.NewCodec("lz4", 1024)
	assert.ErrorIs(t, err, replication.ErrUnknownCompression)
}

func TestCodec_Unmarshal_Errors(t *testing.T) {
	c := newCodec(t, replication.CompressionNone)

	_, err := c.Unmarshal(nil)
	assert.ErrorIs(t, err, replication.ErrMalformed)

	_, err = c.Unmarshal([]byte{9, 1, 2})
	assert.ErrorIs(t, err, replication.ErrUnknownCompression)

	_, err = c.Unmarshal([]byte{1, 0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, replication.ErrMalformed)
}

func TestCodec_Unmarshal_PayloadTooLarge(t *testing.T) {
	small, err := replication.NewCodec(replication.CompressionSnappy, 64)
	require.NoError(t, err)
	defer small.Close()
	big := newCodec(t, replication.CompressionSnappy)

	snap := replication.Snapshot{
		Instance: uuid.New(),
		Sequence: 1,
		View:     replication.RevolverView{Cells: make([]firearm.AmmoCell, 200)},
	}
	_, err = small.Unmarshal(big.Marshal(snap))
	assert.ErrorIs(t, err, replication.ErrPayloadTooLarge)
}

func TestDecode_UnknownVariant(t *testing.T) {
	id := uuid.New()
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, id[:])
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, 3)
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{1, 2, 3})

	_, err := replication.Decode(b)
	assert.ErrorIs(t, err, replication.ErrUnknownVariant)
}

func TestDecode_AcceptsUnpackedCells(t *testing.T) {
	id := uuid.New()
	var body []byte
	for _, c := range []firearm.AmmoCell{firearm.CellLive, firearm.CellSpent, firearm.CellAbsent} {
		body = protowire.AppendTag(body, 1, protowire.VarintType)
		body = protowire.AppendVarint(body, uint64(c))
	}
	body = protowire.AppendTag(body, 2, protowire.VarintType)
	body = protowire.AppendVarint(body, 2)

	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, id[:])
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, 7, protowire.BytesType)
	b = protowire.AppendBytes(b, body)

	snap, err := replication.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, id, snap.Instance)
	assert.Equal(t, uint64(7), snap.Sequence)
	assert.Equal(t, replication.RevolverView{
		Cells:       []firearm.AmmoCell{firearm.CellLive, firearm.CellSpent, firearm.CellAbsent},
		CurrentSlot: 2,
	}, snap.View)
}

func TestDecode_RejectsInvalidContents(t *testing.T) {
	id := uuid.New()
	envelope := func(field protowire.Number, body []byte) []byte {
		var b []byte
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, id[:])
		b = protowire.AppendTag(b, field, protowire.BytesType)
		return protowire.AppendBytes(b, body)
	}
	var overflow []byte
	overflow = protowire.AppendTag(overflow, 1, protowire.VarintType)
	overflow = protowire.AppendVarint(overflow, 1<<40)

	var badCell []byte
	badCell = protowire.AppendTag(badCell, 1, protowire.VarintType)
	badCell = protowire.AppendVarint(badCell, 7)

	var slotOutOfRange []byte
	slotOutOfRange = protowire.AppendTag(slotOutOfRange, 1, protowire.BytesType)
	slotOutOfRange = protowire.AppendBytes(slotOutOfRange, []byte{0, 0})
	slotOutOfRange = protowire.AppendTag(slotOutOfRange, 2, protowire.VarintType)
	slotOutOfRange = protowire.AppendVarint(slotOutOfRange, 2)

	for name, payload := range map[string][]byte{
		"overflow":       envelope(3, overflow),
		"bad chamber":    envelope(5, badCell),
		"slot out range": envelope(7, slotOutOfRange),
		"no instance":    protowire.AppendBytes(protowire.AppendTag(nil, 3, protowire.BytesType), nil),
		"truncated":      envelope(3, overflow)[:10],
	} {
		_, err := replication.Decode(payload)
		assert.ErrorIs(t, err, replication.ErrMalformed, name)
	}
}
