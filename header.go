// Header management for grist files.
//
// The header is exactly 96 bytes: a single JSON object padded with spaces
// and terminated with a newline. It records the format version, the
// checksum algorithm used by every frame in the file, a random stream ID,
// and the creation time. The "grist" key comes first so the first bytes
// of the file double as the format signature.
package grist

import (
	"bytes"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// HeaderSize is the fixed size of the header in bytes. Frame offsets
// start here.
const HeaderSize = 96

// FormatVersion is the current on-disk format version.
const FormatVersion = 1

// headerMagic is the byte prefix shared by every grist header, used for
// format detection.
var headerMagic = []byte(`{"grist":`)

// Header contains file metadata stored in the first 96 bytes.
type Header struct {
	Version   int    `json:"grist"` // Format version, doubles as signature
	Algorithm int    `json:"_alg"`  // Checksum algorithm (1=xxHash3, 2=FNV1a, 3=Blake2b)
	StreamID  string `json:"_id"`   // Random UUID identifying the stream
	Timestamp int64  `json:"_ts"`   // Unix milliseconds when written
}

// newHeader builds a header for a fresh file.
func newHeader(alg int) *Header {
	return &Header{
		Version:   FormatVersion,
		Algorithm: alg,
		StreamID:  uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
	}
}

// parseHeader validates and decodes a 96-byte header block.
func parseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize || !bytes.HasPrefix(buf, headerMagic) {
		return nil, ErrCorruptHeader
	}

	var hdr Header
	if err := json.Unmarshal(bytes.TrimSpace(buf[:HeaderSize]), &hdr); err != nil {
		return nil, ErrCorruptHeader
	}
	if hdr.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptHeader, hdr.Version)
	}
	if !validAlg(hdr.Algorithm) {
		return nil, fmt.Errorf("%w: unknown checksum algorithm %d", ErrCorruptHeader, hdr.Algorithm)
	}
	return &hdr, nil
}

// encode serialises the header to exactly HeaderSize bytes with padding.
func (h *Header) encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}

	// Pad with spaces to HeaderSize-1, then add newline
	if len(data) > HeaderSize-1 {
		return nil, ErrCorruptHeader // header too large
	}

	buf := make([]byte, HeaderSize)
	copy(buf, data)
	for i := len(data); i < HeaderSize-1; i++ {
		buf[i] = ' '
	}
	buf[HeaderSize-1] = '\n'

	return buf, nil
}
