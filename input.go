// Input handling: opening files, sniffing format and compression.
//
// One open path serves every subcommand. A file (or stdin) is sniffed
// for the zstd magic first and decompressed transparently, then for the
// grist header; anything else is treated as line-delimited JSON. Only a
// plain uncompressed file yields a seekable source.
package grist

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Format identifies the decoder flavour for an input.
type Format int

const (
	FormatBinary Format = iota + 1
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "grist"
	case FormatText:
		return "jsonl"
	default:
		return "unknown"
	}
}

// Input is an opened, sniffed source. For binary inputs the source is
// positioned at the first frame and Header is populated.
type Input struct {
	Name   string
	Src    *ByteSource
	Format Format
	Header *Header // nil for textual inputs

	file *os.File
	zr   *zstd.Decoder
}

// OpenInput opens path ("-" is stdin) and sniffs it.
func OpenInput(path string, logger *slog.Logger) (*Input, error) {
	log := defaultLogger(logger)

	in := &Input{Name: path}
	if path == "-" {
		in.Name = "stdin"
		in.Src = NewByteSource(in.Name, os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		in.file = f
		in.Src = NewFileByteSource(path, f)
	}

	if err := in.sniff(); err != nil {
		in.Close()
		return nil, err
	}
	log.Debug("opened input", "name", in.Name, "format", in.Format.String(),
		"seekable", in.Src.Seekable(), "compressed", in.zr != nil)
	return in, nil
}

func (in *Input) sniff() error {
	prefix, err := in.Src.PeekN(len(zstdMagic))
	if err != nil && err != io.EOF {
		return err
	}
	if isZstd(prefix) {
		zr, zerr := newZstdReader(in.Src)
		if zerr != nil {
			return fmt.Errorf("%s: zstd: %w", in.Name, zerr)
		}
		in.zr = zr
		in.Src = NewByteSource(in.Name, zr)
		prefix, err = in.Src.PeekN(len(headerMagic))
		if err != nil && err != io.EOF {
			return err
		}
	} else {
		prefix, err = in.Src.PeekN(len(headerMagic))
		if err != nil && err != io.EOF {
			return err
		}
	}

	if !bytes.HasPrefix(prefix, headerMagic) {
		in.Format = FormatText
		return nil
	}

	block, err := in.Src.PeekN(HeaderSize)
	if err != nil {
		return fmt.Errorf("%s: %w", in.Name, ErrCorruptHeader)
	}
	hdr, err := parseHeader(block)
	if err != nil {
		return fmt.Errorf("%s: %w", in.Name, err)
	}
	if err := in.Src.Discard(HeaderSize); err != nil {
		return err
	}
	in.Format = FormatBinary
	in.Header = hdr
	return nil
}

// Grepper builds the driver matching this input's flavour.
func (in *Input) Grepper(pat *Pattern, out io.Writer, logger *slog.Logger) *Grepper {
	if in.Format == FormatBinary {
		return NewBinaryGrepper(pat, in.Src, in.Header.Algorithm, out, logger)
	}
	return NewTextGrepper(pat, in.Src, out, logger)
}

// Close releases the underlying file and decompressor.
func (in *Input) Close() error {
	if in.zr != nil {
		in.zr.Close()
	}
	if in.file != nil {
		return in.file.Close()
	}
	return nil
}
