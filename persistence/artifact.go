package persistence

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

const (
	// MagicVocabulary identifies vocabulary artifacts ("ZGVO").
	MagicVocabulary = 0x4F56475A
	// MagicGraph identifies graph artifacts ("ZGGR").
	MagicGraph = 0x5247475A
	// Version is the current artifact format version.
	Version = 1

	headerSize = 24
)

// header is the fixed prefix of every artifact.
type header struct {
	Magic       uint32
	Version     uint32
	Compression Compression
	Checksum    uint32
	PayloadLen  uint32
	RawLen      uint32
}

func (h header) appendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, h.Magic)
	b = binary.LittleEndian.AppendUint32(b, h.Version)
	b = append(b, byte(h.Compression), 0, 0, 0)
	b = binary.LittleEndian.AppendUint32(b, h.Checksum)
	b = binary.LittleEndian.AppendUint32(b, h.PayloadLen)
	b = binary.LittleEndian.AppendUint32(b, h.RawLen)
	return b
}

func parseHeader(b []byte) header {
	return header{
		Magic:       binary.LittleEndian.Uint32(b[0:4]),
		Version:     binary.LittleEndian.Uint32(b[4:8]),
		Compression: Compression(b[8]),
		Checksum:    binary.LittleEndian.Uint32(b[12:16]),
		PayloadLen:  binary.LittleEndian.Uint32(b[16:20]),
		RawLen:      binary.LittleEndian.Uint32(b[20:24]),
	}
}

// encodeArtifact frames raw with a header, compressing it with c.
func encodeArtifact(magic uint32, raw []byte, c Compression) ([]byte, error) {
	if uint64(len(raw)) > math.MaxUint32 {
		return nil, fmt.Errorf("persistence: payload too large: %d bytes", len(raw))
	}
	stored, used, err := compress(raw, c)
	if err != nil {
		return nil, err
	}

	h := header{
		Magic:       magic,
		Version:     Version,
		Compression: used,
		Checksum:    crc32.ChecksumIEEE(stored),
		PayloadLen:  uint32(len(stored)),
		RawLen:      uint32(len(raw)),
	}
	out := make([]byte, 0, headerSize+len(stored))
	out = h.appendTo(out)
	return append(out, stored...), nil
}

// decodeArtifact validates the frame and returns the raw payload.
func decodeArtifact(magic uint32, data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(data))
	}
	h := parseHeader(data)
	if h.Magic != magic {
		return nil, fmt.Errorf("%w: got 0x%08x, want 0x%08x", ErrInvalidMagic, h.Magic, magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version)
	}
	stored := data[headerSize:]
	if uint64(len(stored)) != uint64(h.PayloadLen) {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(stored), h.PayloadLen)
	}
	if sum := crc32.ChecksumIEEE(stored); sum != h.Checksum {
		return nil, &ChecksumMismatchError{Expected: h.Checksum, Actual: sum}
	}
	return decompress(stored, h.Compression, int(h.RawLen))
}

// payloadBuffer appends and consumes varint-framed values. The first
// read error sticks; later reads return zero values.
type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUvarint(v uint64) {
	p.buf = binary.AppendUvarint(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	p.writeUvarint(uint64(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) readUvarint() uint64 {
	if p.err != nil {
		return 0
	}
	v, n := binary.Uvarint(p.buf[p.pos:])
	if n <= 0 {
		p.err = fmt.Errorf("%w: bad varint at offset %d", ErrCorrupt, p.pos)
		return 0
	}
	p.pos += n
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if p.err != nil {
		return 0
	}
	if p.pos+4 > len(p.buf) {
		p.err = fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

func (p *payloadBuffer) readString() string {
	n := p.readUvarint()
	if p.err != nil {
		return ""
	}
	if n > uint64(len(p.buf)-p.pos) {
		p.err = fmt.Errorf("%w: %w", ErrCorrupt, io.ErrUnexpectedEOF)
		return ""
	}
	s := string(p.buf[p.pos : p.pos+int(n)])
	p.pos += int(n)
	return s
}

// count reads a length prefix and rejects values that cannot fit in the
// remaining bytes, given each element needs at least minSize bytes.
func (p *payloadBuffer) count(minSize int) int {
	n := p.readUvarint()
	if p.err != nil {
		return 0
	}
	if n > uint64(len(p.buf)-p.pos)/uint64(minSize) {
		p.err = fmt.Errorf("%w: count %d exceeds remaining payload", ErrCorrupt, n)
		return 0
	}
	return int(n)
}

func (p *payloadBuffer) finish() error {
	if p.err != nil {
		return p.err
	}
	if p.pos != len(p.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(p.buf)-p.pos)
	}
	return nil
}
