// Frame layout for the grist container.
//
// Every frame carries its total size both leading and trailing, so the
// stream can be walked forward from any boundary and backward from the
// end. The payload is covered by a 64-bit checksum, which is what makes
// resync after an arbitrary seek reliable: a candidate boundary is only
// accepted once its checksum verifies, so false positives from payload
// bytes that happen to look like a frame header are vanishingly rare.
package grist

import (
	"encoding/binary"
	"fmt"
)

// Frame field sizes and bounds.
const (
	frameMagic   = 0x67
	frameVersion = 0x01

	sizeFieldBytes  = 4
	frameHeaderSize = sizeFieldBytes + 1 + 1 + 1 + 1 + 8 // size, magic, version, kind, flags, checksum
	minFrameSize    = frameHeaderSize + sizeFieldBytes
	maxFrameSize    = 16 * 1024 * 1024
)

// MaxRecordSize bounds a single record: the payload of the largest
// frame.
const MaxRecordSize = maxFrameSize - minFrameSize

// Frame kinds.
const (
	kindValue     = 1 // one encoded record
	kindDictReset = 2 // start a new interning dictionary
	kindDictAdd   = 3 // intern one string
)

// frameHeader is the decoded fixed prefix of a frame.
type frameHeader struct {
	size     uint32 // total frame size including both size fields
	kind     byte
	checksum uint64
}

func (h frameHeader) payloadLen() int {
	return int(h.size) - minFrameSize
}

// parseFrameHeader decodes and validates the fixed frame prefix. It
// checks everything that can be checked without reading the payload;
// callers still verify the checksum and the trailing size.
func parseFrameHeader(buf []byte) (frameHeader, error) {
	if len(buf) < frameHeaderSize {
		return frameHeader{}, fmt.Errorf("%w: truncated header", ErrCorruptFrame)
	}
	size := binary.LittleEndian.Uint32(buf[0:4])
	if size < minFrameSize {
		return frameHeader{}, fmt.Errorf("%w: size %d below minimum", ErrCorruptFrame, size)
	}
	if size > maxFrameSize {
		return frameHeader{}, fmt.Errorf("%w: size %d", ErrFrameTooLarge, size)
	}
	if buf[4] != frameMagic {
		return frameHeader{}, fmt.Errorf("%w: bad magic 0x%02x", ErrCorruptFrame, buf[4])
	}
	if buf[5] != frameVersion {
		return frameHeader{}, fmt.Errorf("%w: unknown frame version %d", ErrCorruptFrame, buf[5])
	}
	kind := buf[6]
	if kind != kindValue && kind != kindDictReset && kind != kindDictAdd {
		return frameHeader{}, fmt.Errorf("%w: unknown kind %d", ErrCorruptFrame, kind)
	}
	if buf[7] != 0 {
		return frameHeader{}, fmt.Errorf("%w: nonzero flags", ErrCorruptFrame)
	}
	return frameHeader{
		size:     size,
		kind:     kind,
		checksum: binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

// encodeFrame builds a complete frame around payload.
func encodeFrame(kind byte, payload []byte, alg int) ([]byte, error) {
	size := uint64(minFrameSize) + uint64(len(payload))
	if size > maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(size))
	buf[4] = frameMagic
	buf[5] = frameVersion
	buf[6] = kind
	buf[7] = 0
	binary.LittleEndian.PutUint64(buf[8:16], checksum(payload, alg))
	copy(buf[frameHeaderSize:], payload)
	binary.LittleEndian.PutUint32(buf[size-sizeFieldBytes:], uint32(size))
	return buf, nil
}
