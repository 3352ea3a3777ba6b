// Zstd layering for compressed inputs and outputs.
//
// Compressed files are recognised by the zstd magic and decompressed
// transparently on every streaming path. A compressed stream is not
// seekable, so bisect and backward tailing reject it the same way they
// reject a pipe.
//
// SpeedFastest is deliberate: encoding runs on every record during enc
// (hot path) while decompression speed is dominated by the scan anyway.
package grist

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the zstd frame magic number.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func isZstd(prefix []byte) bool {
	return bytes.HasPrefix(prefix, zstdMagic)
}

func newZstdReader(r io.Reader) (*zstd.Decoder, error) {
	return zstd.NewReader(r)
}

// NewZstdWriter layers compression over w for enc output. Close the
// returned encoder to terminate the stream.
func NewZstdWriter(w io.Writer) (*zstd.Encoder, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
}
