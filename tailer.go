// Tail: print the last records of an input, optionally following growth.
//
// Seekable inputs find their starting point by walking frames (or
// newlines) backward from the end, which reads only the tail of the
// file. Pipes and compressed streams have to be read through, keeping a
// ring of the last rendered lines. Follow mode watches the file with
// fsnotify and falls back to polling when the watch cannot be
// established.
package grist

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// followPollInterval paces the fallback poll when no watch is active.
const followPollInterval = 500 * time.Millisecond

// TailConfig holds tail options.
type TailConfig struct {
	Count  int  // records to print from the end (default 10)
	Follow bool // keep printing as the file grows
}

// Tailer prints the tail of one input.
type Tailer struct {
	in   *Input
	w    io.Writer
	cfg  TailConfig
	log  *slog.Logger
	dec  *Decoder // binary inputs
	emit *Emitter
	out  *bufio.Writer // textual echo
	line []byte
}

// NewTailer prepares a tailer for in.
func NewTailer(in *Input, w io.Writer, cfg TailConfig, logger *slog.Logger) *Tailer {
	if cfg.Count <= 0 {
		cfg.Count = 10
	}
	t := &Tailer{in: in, w: w, cfg: cfg, log: defaultLogger(logger)}
	if in.Format == FormatBinary {
		t.dec = NewDecoder(in.Src, in.Header.Algorithm, logger)
		t.emit = NewEmitter(w)
	} else {
		t.out = bufio.NewWriter(w)
	}
	return t
}

// Run prints the last records and, in follow mode, keeps going until the
// context is cancelled.
func (t *Tailer) Run(ctx context.Context) error {
	if t.in.Src.Seekable() {
		if err := t.seekToTail(); err != nil {
			return err
		}
		if err := t.drain(); err != nil {
			return err
		}
	} else {
		if err := t.drainRing(); err != nil {
			return err
		}
	}
	if err := t.flush(); err != nil {
		return err
	}

	if !t.cfg.Follow || t.in.file == nil {
		if t.cfg.Follow && t.in.file == nil {
			t.log.Debug("follow ignored for non-file input", "name", t.in.Name)
		}
		return nil
	}
	return t.follow(ctx)
}

// seekToTail positions the source at the start of the last Count
// records. A backward walk that trips on anything gives up and starts
// from the beginning, which is only slow, never wrong.
func (t *Tailer) seekToTail() error {
	if t.in.Format == FormatBinary {
		start, ok := t.lastFramesStart()
		if !ok {
			return t.dec.SeekSync(HeaderSize)
		}
		return t.dec.SeekSync(start)
	}

	start, ok := t.lastLinesStart()
	if !ok {
		start = 0
	}
	return t.in.Src.Seek(start)
}

// lastFramesStart walks frames backward from the end until Count value
// frames have been seen.
func (t *Tailer) lastFramesStart() (int64, bool) {
	src := t.in.Src
	pos := src.EndPos()
	start := pos
	count := 0
	for pos > HeaderSize && count < t.cfg.Count {
		if err := src.Seek(pos - sizeFieldBytes); err != nil {
			return 0, false
		}
		tb, err := src.PeekN(sizeFieldBytes)
		if err != nil {
			return 0, false
		}
		sz := int64(binary.LittleEndian.Uint32(tb))
		if sz < minFrameSize || sz > maxFrameSize || sz > pos-HeaderSize {
			return 0, false
		}
		q := pos - sz
		if err := src.Seek(q); err != nil {
			return 0, false
		}
		hb, err := src.PeekN(frameHeaderSize)
		if err != nil {
			return 0, false
		}
		hdr, perr := parseFrameHeader(hb)
		if perr != nil || int64(hdr.size) != sz {
			return 0, false
		}
		if hdr.kind == kindValue {
			count++
		}
		start = q
		pos = q
	}
	return start, true
}

// lastLinesStart walks chunks backward from the end counting newlines.
func (t *Tailer) lastLinesStart() (int64, bool) {
	f := t.in.file
	info, err := f.Stat()
	if err != nil {
		return 0, false
	}
	end := info.Size()

	// A trailing newline terminates the last record rather than
	// starting an empty one.
	seen := 0
	buf := make([]byte, readChunk)
	pos := end
	skipFirst := true
	for pos > 0 {
		n := int64(len(buf))
		if n > pos {
			n = pos
		}
		if _, err := f.ReadAt(buf[:n], pos-n); err != nil {
			return 0, false
		}
		for i := n - 1; i >= 0; i-- {
			if buf[i] != '\n' {
				continue
			}
			if skipFirst && pos-n+i == end-1 {
				skipFirst = false
				continue
			}
			seen++
			if seen == t.cfg.Count {
				return pos - n + i + 1, true
			}
		}
		pos -= n
	}
	return 0, true
}

// drain renders records until end of stream.
func (t *Tailer) drain() error {
	if t.in.Format == FormatBinary {
		for {
			t.emit.Reset()
			ok, err := t.dec.NextRecord(t.emit)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			t.emit.EndRecord()
		}
	}
	for {
		line, err := t.in.Src.ReadLine(t.line[:0])
		t.line = line
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if blankLine(line) {
			continue
		}
		t.out.Write(line)
		t.out.WriteByte('\n')
	}
}

// drainRing reads everything, keeping only the last Count rendered
// lines, then prints them.
func (t *Tailer) drainRing() error {
	ring := make([][]byte, 0, t.cfg.Count)
	push := func(line []byte) {
		cp := make([]byte, len(line))
		copy(cp, line)
		if len(ring) == t.cfg.Count {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, cp)
	}

	if t.in.Format == FormatBinary {
		var buf bytes.Buffer
		em := NewEmitter(&buf)
		for {
			buf.Reset()
			em.Reset()
			ok, err := t.dec.NextRecord(em)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			em.EndRecord()
			if err := em.Flush(); err != nil {
				return err
			}
			push(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
		}
		for _, line := range ring {
			t.w.Write(append(line, '\n'))
		}
		return nil
	}

	for {
		line, err := t.in.Src.ReadLine(t.line[:0])
		t.line = line
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if blankLine(line) {
			continue
		}
		push(line)
	}
	for _, line := range ring {
		t.out.Write(line)
		t.out.WriteByte('\n')
	}
	return nil
}

// follow keeps draining as the file grows.
func (t *Tailer) follow(ctx context.Context) error {
	var events chan fsnotify.Event
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if werr := watcher.Add(t.in.Name); werr == nil {
			events = make(chan fsnotify.Event, 1)
			go func() {
				for ev := range watcher.Events {
					if ev.Has(fsnotify.Write) {
						select {
						case events <- ev:
						default:
						}
					}
				}
			}()
		} else {
			t.log.Debug("watch failed, polling", "name", t.in.Name, "err", werr)
		}
		defer watcher.Close()
	} else {
		t.log.Debug("fsnotify unavailable, polling", "err", err)
	}

	ticker := time.NewTicker(followPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-events:
		case <-ticker.C:
		}

		t.in.Src.Refresh()
		if err := t.drain(); err != nil {
			return err
		}
		if err := t.flush(); err != nil {
			return err
		}
	}
}

func (t *Tailer) flush() error {
	if t.emit != nil {
		return t.emit.Flush()
	}
	return t.out.Flush()
}
