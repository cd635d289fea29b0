package replication

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Compression names accepted by NewCodec.
const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
	CompressionZstd   = "zstd"
)

// Payload header bytes identifying the compression of the remaining bytes.
const (
	headerNone   byte = 0
	headerSnappy byte = 1
	headerZstd   byte = 2
)

var (
	// ErrUnknownCompression is returned for an unrecognised compression name
	// or payload header.
	ErrUnknownCompression = errors.New("replication: unknown compression")
	// ErrPayloadTooLarge is returned when a payload would decompress past the
	// configured limit.
	ErrPayloadTooLarge = errors.New("replication: payload too large")
)

// Codec turns snapshots into transport payloads and back. A payload is one
// header byte naming the compression followed by the compressed Encode
// output. Unmarshal honours the header, so a viewer decodes payloads from a
// server configured with any compression.
//
// A Codec is safe for concurrent use.
type Codec struct {
	compression string
	maxPayload  int
	enc         *zstd.Encoder
	dec         *zstd.Decoder
}

// NewCodec builds a Codec that compresses with the named compression and
// refuses to decode payloads larger than maxPayloadBytes once decompressed.
//
// Precondition: maxPayloadBytes must be > 0.
func NewCodec(compression string, maxPayloadBytes int) (*Codec, error) {
	if maxPayloadBytes <= 0 {
		panic("replication: NewCodec: maxPayloadBytes must be > 0")
	}
	switch compression {
	case CompressionNone, CompressionSnappy, CompressionZstd:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, compression)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxPayloadBytes)))
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Codec{compression: compression, maxPayload: maxPayloadBytes, enc: enc, dec: dec}, nil
}

// Compression returns the configured compression name.
func (c *Codec) Compression() string { return c.compression }

// Marshal encodes and compresses snap.
func (c *Codec) Marshal(snap Snapshot) []byte {
	raw := Encode(snap)
	switch c.compression {
	case CompressionSnappy:
		return append([]byte{headerSnappy}, snappy.Encode(nil, raw)...)
	case CompressionZstd:
		return c.enc.EncodeAll(raw, []byte{headerZstd})
	default:
		return append([]byte{headerNone}, raw...)
	}
}

// Unmarshal decompresses and decodes a payload produced by Marshal.
func (c *Codec) Unmarshal(payload []byte) (Snapshot, error) {
	if len(payload) == 0 {
		return Snapshot{}, malformed(errors.New("empty payload"))
	}
	body := payload[1:]
	var raw []byte
	switch payload[0] {
	case headerNone:
		raw = body
	case headerSnappy:
		n, err := snappy.DecodedLen(body)
		if err != nil {
			return Snapshot{}, malformed(err)
		}
		if n > c.maxPayload {
			return Snapshot{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, n)
		}
		if raw, err = snappy.Decode(nil, body); err != nil {
			return Snapshot{}, malformed(err)
		}
	case headerZstd:
		var err error
		raw, err = c.dec.DecodeAll(body, nil)
		if err != nil {
			if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
				return Snapshot{}, fmt.Errorf("%w: %v", ErrPayloadTooLarge, err)
			}
			return Snapshot{}, malformed(err)
		}
	default:
		return Snapshot{}, fmt.Errorf("%w: header %d", ErrUnknownCompression, payload[0])
	}
	if len(raw) > c.maxPayload {
		return Snapshot{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(raw))
	}
	return Decode(raw)
}

// Close releases the zstd encoder and decoder.
func (c *Codec) Close() error {
	c.dec.Close()
	return c.enc.Close()
}
