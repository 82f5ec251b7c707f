// Package buffer
// Created by RTT.
// Author: teocci@yandex.com on 2021-Dec-02
package buffer

import (
	"io"

	"github.com/rs/zerolog/log"
)

// AccReader is like a buffered reader, but supports partial consumption.
//
// Import new data with FillBuf, inspect the unconsumed window with Data,
// and report through Consume how many bytes were actually used. This lets
// a demuxer peek at a record header, decide how long the record is, and
// only then commit to having read it.
//
// An AccReader is for a single logical owner: none of its methods are
// safe for concurrent use.
type AccReader struct {
	r   io.ReadSeeker
	buf []byte
	pos int
	end int
	// index is the stream offset of the byte at buf[pos].
	index int64
}

// NewAccReader wraps r with a DefaultCapacity lookahead window.
// The window is allocated upfront but not filled.
func NewAccReader(r io.ReadSeeker) *AccReader {
	return NewAccReaderSize(r, DefaultCapacity)
}

// NewAccReaderSize wraps r with a window of the given capacity.
func NewAccReaderSize(r io.ReadSeeker, size int) *AccReader {
	return &AccReader{
		r:   r,
		buf: make([]byte, size),
	}
}

// Source returns the underlying reader.
func (ar *AccReader) Source() io.ReadSeeker {
	return ar.r
}

// Unwrap gives the underlying reader back to the caller.
//
// Any buffered but unconsumed bytes are lost: the source's position is
// ahead of the logical position by Buffered() bytes.
func (ar *AccReader) Unwrap() io.ReadSeeker {
	r := ar.r
	ar.r = nil
	ar.pos = 0
	ar.end = 0
	return r
}

// Data returns the unconsumed window without side effects. The slice is
// only valid until the next FillBuf, Read or Seek.
func (ar *AccReader) Data() []byte {
	return ar.buf[ar.pos:ar.end]
}

// Buffered returns the length of the unconsumed window.
func (ar *AccReader) Buffered() int {
	return ar.end - ar.pos
}

// Capacity returns the total allocated window size.
func (ar *AccReader) Capacity() int {
	return len(ar.buf)
}

// Grow widens the window by n zeroed bytes of capacity. The unconsumed
// window keeps its content and order.
func (ar *AccReader) Grow(n int) {
	if n <= 0 {
		return
	}
	ar.buf = append(ar.buf, make([]byte, n)...)
}

// resetPosition shifts the unconsumed window down to offset 0 so the
// free tail can receive new data. Costs O(Buffered()), not O(Capacity()).
func (ar *AccReader) resetPosition() {
	log.Trace().Int("pos", ar.pos).Int("end", ar.end).Msg("accreader: compacting window")
	if ar.end > ar.pos {
		copy(ar.buf, ar.buf[ar.pos:ar.end])
	}
	ar.end -= ar.pos
	ar.pos = 0
}

// FillBuf tops the window up from the source and returns it. An empty
// returned window with a nil error means the source is exhausted; other
// source errors are returned unchanged.
func (ar *AccReader) FillBuf() ([]byte, error) {
	if ar.pos != 0 || ar.end != len(ar.buf) {
		ar.resetPosition()
		n, err := ar.r.Read(ar.buf[ar.end:])
		ar.end += n
		log.Trace().Int("read", n).Int("end", ar.end).Msg("accreader: fill")
		if err != nil && err != io.EOF {
			return ar.buf[ar.pos:ar.end], err
		}
	}
	return ar.buf[ar.pos:ar.end], nil
}

// Consume marks n bytes of the window as used. Consuming more than is
// buffered is not an error: the amount is clamped to the window, and the
// caller must treat that as "consumed everything currently buffered".
func (ar *AccReader) Consume(n int) {
	if n < 0 {
		n = 0
	}
	if n > ar.end-ar.pos {
		n = ar.end - ar.pos
	}
	ar.pos += n
	ar.index += int64(n)
}

// Read implements io.Reader with a three-branch policy:
// destinations smaller than the window are served from the buffer with
// no source I/O; destinations larger than the whole capacity drain the
// window and then bypass the buffer entirely; anything else refills the
// window first and may return fewer bytes than asked (short read).
func (ar *AccReader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return
	}
	if len(p) < ar.end-ar.pos {
		n = copy(p, ar.buf[ar.pos:ar.pos+len(p)])
		ar.Consume(n)
		return
	}
	if len(p) > len(ar.buf) {
		drained := copy(p, ar.buf[ar.pos:ar.end])
		ar.Consume(drained)
		var m int
		m, err = ar.r.Read(p[drained:])
		ar.index += int64(m)
		n = drained + m
		if err == io.EOF && n > 0 {
			err = nil
		}
		return
	}
	var window []byte
	if window, err = ar.FillBuf(); err != nil {
		return
	}
	if len(window) == 0 {
		err = io.EOF
		return
	}
	n = copy(p, window)
	ar.Consume(n)
	return
}

// Seek implements io.Seeker. Absolute targets inside the unconsumed
// window and non-negative relative offsets within it are served by
// adjusting the window, without touching the source. Negative relative
// offsets and end-relative seeks always go to the source, even when the
// bytes are still physically present before the window: rewinds are the
// source's job. A source-level relative seek is relative to the source's
// own position, which is Buffered() bytes ahead of the logical one.
//
// On a successful source-level seek the window is discarded and refilled
// once; on failure the window is left exactly as it was.
func (ar *AccReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset >= ar.index && offset < ar.index+int64(ar.end-ar.pos) {
			ar.pos += int(offset - ar.index)
			ar.index = offset
			return offset, nil
		}
	case io.SeekCurrent:
		if offset >= 0 && offset <= int64(ar.end-ar.pos) {
			ar.pos += int(offset)
			ar.index += offset
			return ar.index, nil
		}
	}

	log.Trace().Int64("offset", offset).Int("whence", whence).Msg("accreader: seek through source")
	abs, err := ar.r.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	ar.pos = 0
	ar.end = 0
	ar.index = abs
	if _, err = ar.FillBuf(); err != nil {
		return abs, err
	}
	return abs, nil
}

var (
	_ io.Reader = (*AccReader)(nil)
	_ io.Seeker = (*AccReader)(nil)
	_ Buffered  = (*AccReader)(nil)
)
