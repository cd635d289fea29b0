package replication

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/cory-johannsen/gunfeed/internal/game/firearm"
)

var (
	// ErrUnknownVariant is returned when an encoded snapshot carries no known
	// mechanism variant.
	ErrUnknownVariant = errors.New("replication: unknown snapshot variant")
)

// Envelope field numbers. The variant fields form a oneof.
const (
	fieldInstance   protowire.Number = 1
	fieldSequence   protowire.Number = 2
	fieldBattery    protowire.Number = 3
	fieldBoltAction protowire.Number = 4
	fieldPump       protowire.Number = 5
	fieldMagazine   protowire.Number = 6
	fieldRevolver   protowire.Number = 7
)

// Encode lays snap out as a protobuf message:
//
//	message Snapshot {
//	  bytes  instance = 1;   // 16-byte uuid
//	  uint64 sequence = 2;
//	  oneof view {
//	    Battery    battery     = 3;  // 1 charge, 2 capacity
//	    BoltAction bolt_action = 4;  // 1 chamber, 2 packed cells, 3 bolt_open, 4 shots_left
//	    Pump       pump        = 5;  // 1 chamber, 2 packed cells (bool)
//	    Magazine   magazine    = 6;  // 1 chambered, 2 Mag{1 count, 2 max}, 3 auto_ejects
//	    Revolver   revolver    = 7;  // 1 packed cells, 2 current_slot
//	  }
//	}
//
// Precondition: snap.View must be non-nil.
func Encode(snap Snapshot) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldInstance, protowire.BytesType)
	b = protowire.AppendBytes(b, snap.Instance[:])
	b = protowire.AppendTag(b, fieldSequence, protowire.VarintType)
	b = protowire.AppendVarint(b, snap.Sequence)

	var field protowire.Number
	var body []byte
	switch v := snap.View.(type) {
	case BatteryView:
		field = fieldBattery
		body = appendUint(body, 1, uint64(v.Charge))
		body = appendUint(body, 2, uint64(v.Capacity))
	case BoltActionView:
		field = fieldBoltAction
		body = appendUint(body, 1, uint64(v.Chamber))
		body = appendPackedCells(body, 2, v.Cells)
		body = appendBool(body, 3, v.BoltOpen)
		body = appendUint(body, 4, uint64(v.ShotsLeft))
	case PumpView:
		field = fieldPump
		body = appendUint(body, 1, uint64(v.Chamber))
		if len(v.Cells) > 0 {
			var packed []byte
			for _, live := range v.Cells {
				packed = protowire.AppendVarint(packed, protowire.EncodeBool(live))
			}
			body = protowire.AppendTag(body, 2, protowire.BytesType)
			body = protowire.AppendBytes(body, packed)
		}
	case MagazineView:
		field = fieldMagazine
		body = appendBool(body, 1, v.Chambered)
		if v.Mag != nil {
			var mag []byte
			mag = appendUint(mag, 1, uint64(v.Mag.Count))
			mag = appendUint(mag, 2, uint64(v.Mag.Max))
			body = protowire.AppendTag(body, 2, protowire.BytesType)
			body = protowire.AppendBytes(body, mag)
		}
		body = appendUint(body, 3, uint64(v.AutoEjects))
	case RevolverView:
		field = fieldRevolver
		body = appendPackedCells(body, 1, v.Cells)
		body = appendUint(body, 2, uint64(v.CurrentSlot))
	default:
		panic(fmt.Sprintf("replication: Encode: unknown view %T", v))
	}
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

// Decode parses a message produced by Encode. Unknown fields are skipped.
// Both packed and unpacked encodings of repeated fields are accepted. The
// decoded view is validated; an invalid view yields ErrMalformed.
func Decode(b []byte) (Snapshot, error) {
	var snap Snapshot
	var haveInstance bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Snapshot{}, malformed(protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldInstance && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Snapshot{}, malformed(protowire.ParseError(n))
			}
			id, err := uuid.FromBytes(raw)
			if err != nil {
				return Snapshot{}, malformed(err)
			}
			snap.Instance, haveInstance = id, true
			b = b[n:]
		case num == fieldSequence && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Snapshot{}, malformed(protowire.ParseError(n))
			}
			snap.Sequence = v
			b = b[n:]
		case num >= fieldBattery && num <= fieldRevolver && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Snapshot{}, malformed(protowire.ParseError(n))
			}
			view, err := decodeView(num, raw)
			if err != nil {
				return Snapshot{}, err
			}
			snap.View = view
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Snapshot{}, malformed(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !haveInstance {
		return Snapshot{}, malformed(errors.New("missing instance"))
	}
	if snap.View == nil {
		return Snapshot{}, ErrUnknownVariant
	}
	if err := snap.View.validate(); err != nil {
		return Snapshot{}, malformed(err)
	}
	return snap, nil
}

func decodeView(variant protowire.Number, b []byte) (View, error) {
	var (
		u32   = map[protowire.Number]uint32{}
		cells []firearm.AmmoCell
		bools []bool
		mag   *firearm.Mag
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		b = b[n:]
		repeated := isRepeated(variant, num)
		switch {
		case repeated && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			for len(raw) > 0 {
				v, m := protowire.ConsumeVarint(raw)
				if m < 0 {
					return nil, malformed(protowire.ParseError(m))
				}
				if err := appendRepeated(variant, v, &cells, &bools); err != nil {
					return nil, err
				}
				raw = raw[m:]
			}
			b = b[n:]
		case repeated && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			if err := appendRepeated(variant, v, &cells, &bools); err != nil {
				return nil, err
			}
			b = b[n:]
		case variant == fieldMagazine && num == 2 && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			m, err := decodeMag(raw)
			if err != nil {
				return nil, err
			}
			mag = &m
			b = b[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			if v > math.MaxUint32 {
				return nil, malformed(fmt.Errorf("field %d value %d overflows uint32", num, v))
			}
			u32[num] = uint32(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	switch variant {
	case fieldBattery:
		return BatteryView{Charge: u32[1], Capacity: u32[2]}, nil
	case fieldBoltAction:
		return BoltActionView{
			Chamber:   firearm.AmmoCell(u32[1]),
			Cells:     cells,
			BoltOpen:  u32[3] != 0,
			ShotsLeft: u32[4],
		}, cellOK(u32[1])
	case fieldPump:
		return PumpView{Chamber: firearm.AmmoCell(u32[1]), Cells: bools}, cellOK(u32[1])
	case fieldMagazine:
		return MagazineView{Chambered: u32[1] != 0, Mag: mag, AutoEjects: u32[3]}, nil
	case fieldRevolver:
		return RevolverView{Cells: cells, CurrentSlot: int(u32[2])}, nil
	default:
		return nil, ErrUnknownVariant
	}
}

func decodeMag(b []byte) (firearm.Mag, error) {
	var m firearm.Mag
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, malformed(protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.VarintType || (num != 1 && num != 2) {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return m, malformed(protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return m, malformed(protowire.ParseError(n))
		}
		if v > math.MaxUint32 {
			return m, malformed(fmt.Errorf("magazine field %d value %d overflows uint32", num, v))
		}
		if num == 1 {
			m.Count = uint32(v)
		} else {
			m.Max = uint32(v)
		}
		b = b[n:]
	}
	return m, nil
}

func isRepeated(variant, num protowire.Number) bool {
	switch variant {
	case fieldBoltAction, fieldPump:
		return num == 2
	case fieldRevolver:
		return num == 1
	}
	return false
}

func appendRepeated(variant protowire.Number, v uint64, cells *[]firearm.AmmoCell, bools *[]bool) error {
	if variant == fieldPump {
		*bools = append(*bools, protowire.DecodeBool(v))
		return nil
	}
	if v > math.MaxUint8 || !firearm.AmmoCell(v).Valid() {
		return malformed(fmt.Errorf("cell value %d invalid", v))
	}
	*cells = append(*cells, firearm.AmmoCell(v))
	return nil
}

func cellOK(v uint32) error {
	if v > math.MaxUint8 || !firearm.AmmoCell(v).Valid() {
		return malformed(fmt.Errorf("chamber value %d invalid", v))
	}
	return nil
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendUint(b, num, 1)
}

func appendPackedCells(b []byte, num protowire.Number, cells []firearm.AmmoCell) []byte {
	if len(cells) == 0 {
		return b
	}
	var packed []byte
	for _, c := range cells {
		packed = protowire.AppendVarint(packed, uint64(c))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
