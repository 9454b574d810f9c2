package telemetry

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// encMode keeps wall-clock precision in recordings
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Recorder appends CBOR frames to a stream, optionally zstd-compressed
type Recorder struct {
	mu     sync.Mutex
	enc    *cbor.Encoder
	zw     *zstd.Encoder
	buf    *bufio.Writer
	closer io.Closer
	closed bool
}

// NewRecorder writes h then frames to w
// closer, if non-nil, is closed after the stream is flushed
func NewRecorder(w io.Writer, closer io.Closer, compress bool, h Header) (*Recorder, error) {
	r := &Recorder{closer: closer}
	out := w
	if compress {
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		r.zw = zw
		out = zw
	}
	r.buf = bufio.NewWriter(out)
	r.enc = encMode.NewEncoder(r.buf)

	if h.Version == 0 {
		h.Version = FormatVersion
	}
	if err := r.enc.Encode(h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return r, nil
}

// CreateRecording opens path for writing and returns a recorder over it
func CreateRecording(path string, compress bool, h Header) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}
	r, err := NewRecorder(f, f, compress, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// Write appends one frame
func (r *Recorder) Write(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return r.enc.Encode(f)
}

// Close flushes and releases the stream
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if err := r.buf.Flush(); err != nil {
		errs = append(errs, err)
	}
	if r.zw != nil {
		if err := r.zw.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reader decodes a recording produced by Recorder
type Reader struct {
	Header Header
	dec    *cbor.Decoder
	zr     *zstd.Decoder
}

// NewReader detects compression and reads the header
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zstdMagic))

	rd := &Reader{}
	var src io.Reader = br
	if bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		rd.zr = zr
		src = zr
	}
	rd.dec = cbor.NewDecoder(src)
	if err := rd.dec.Decode(&rd.Header); err != nil {
		rd.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	return rd, nil
}

// Next returns the next frame or io.EOF
func (r *Reader) Next() (Frame, error) {
	var f Frame
	err := r.dec.Decode(&f)
	return f, err
}

// Close releases decoder resources
func (r *Reader) Close() {
	if r.zr != nil {
		r.zr.Close()
	}
}

// Summary aggregates a recording
type Summary struct {
	Frames   int
	Duration float64
	TopSpeed float64
	Distance float64
	Respawns int
}

// Summarize consumes all remaining frames
func Summarize(r *Reader) (Summary, error) {
	var s Summary
	var prev *Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return s, fmt.Errorf("frame %d: %w", s.Frames, err)
		}
		s.Frames++
		s.Duration = f.Time
		if speed := math.Hypot(f.Velocity[0], f.Velocity[2]); speed > s.TopSpeed {
			s.TopSpeed = speed
		}
		if f.Respawn != "" {
			s.Respawns++
		} else if prev != nil {
			dx := f.Position[0] - prev.Position[0]
			dz := f.Position[2] - prev.Position[2]
			s.Distance += math.Hypot(dx, dz)
		}
		prev = &f
	}
}

// Recording is a Reader over an opened file
type Recording struct {
	*Reader
	f *os.File
}

// OpenRecording opens a recording file for reading
func OpenRecording(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	rd, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Recording{Reader: rd, f: f}, nil
}

// Close releases the decoder and the file
func (r *Recording) Close() {
	r.Reader.Close()
	r.f.Close()
}
