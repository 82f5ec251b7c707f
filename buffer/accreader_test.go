// Package buffer
// Created by RTT.
// Author: teocci@yandex.com on 2021-Dec-02
package buffer

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

// trackedSource counts how often the reader actually touches the source.
type trackedSource struct {
	*bytes.Reader
	reads int
	seeks int
}

func newTrackedSource(b []byte) *trackedSource {
	return &trackedSource{Reader: bytes.NewReader(b)}
}

func (ts *trackedSource) Read(p []byte) (int, error) {
	ts.reads++
	return ts.Reader.Read(p)
}

func (ts *trackedSource) Seek(offset int64, whence int) (int64, error) {
	ts.seeks++
	return ts.Reader.Seek(offset, whence)
}

// brokenSource rejects every seek and read.
type brokenSource struct {
	*bytes.Reader
	err error
}

func (bs *brokenSource) Seek(offset int64, whence int) (int64, error) {
	return 0, bs.err
}

func (bs *brokenSource) Read(p []byte) (int, error) {
	return 0, bs.err
}

func TestFillConsumeGrow(t *testing.T) {
	src := bytes.NewReader([]byte("abcdefghilmnopqrst"))
	ar := NewAccReaderSize(src, 4)

	window, err := ar.FillBuf()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), window)

	ar.Consume(2)
	assert.Equal(t, []byte("cd"), ar.Data())

	ar.Grow(4)
	assert.Equal(t, []byte("cd"), ar.Data(), "grow must not refill or reorder")
	assert.Equal(t, 8, ar.Capacity())

	window, err = ar.FillBuf()
	require.NoError(t, err)
	assert.Equal(t, []byte("cdefghil"), window)
}

func TestFillScenario(t *testing.T) {
	src := bytes.NewReader([]byte("abcdefghij"))
	ar := NewAccReaderSize(src, 4)

	window, err := ar.FillBuf()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), window)

	ar.Consume(2)
	assert.Equal(t, []byte("cd"), ar.Data())

	ar.Grow(4)
	assert.Equal(t, []byte("cd"), ar.Data())

	window, err = ar.FillBuf()
	require.NoError(t, err)
	assert.Equal(t, []byte("cdefghij"), window)
}

func readLine(ar *AccReader) (string, error) {
	var line []byte
	for {
		window, err := ar.FillBuf()
		if err != nil {
			return "", err
		}
		if len(window) == 0 {
			if len(line) > 0 {
				return string(line), nil
			}
			return "", io.EOF
		}
		if i := bytes.IndexByte(window, '\n'); i >= 0 {
			line = append(line, window[:i]...)
			ar.Consume(i + 1)
			return string(line), nil
		}
		line = append(line, window...)
		ar.Consume(len(window))
	}
}

func TestLineConsumption(t *testing.T) {
	src := bytes.NewReader([]byte("AAAA\nAAAB\nAAACAAADAAAEAAAF\ndabcdEEEE"))
	ar := NewAccReaderSize(src, 20)

	var lines []string
	for {
		line, err := readLine(ar)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"AAAA", "AAAB", "AAACAAADAAAEAAAF", "dabcdEEEE"}, lines)
}

func TestDataIdempotent(t *testing.T) {
	ar := NewAccReaderSize(bytes.NewReader([]byte("abcdefgh")), 4)
	_, err := ar.FillBuf()
	require.NoError(t, err)

	first := ar.Data()
	second := ar.Data()
	assert.Equal(t, first, second)
	assert.Equal(t, []byte("abcd"), second)
	assert.Equal(t, 4, ar.Buffered())
}

func TestConsumeAdvancesIndex(t *testing.T) {
	ar := NewAccReaderSize(bytes.NewReader([]byte("abcdefgh")), 8)
	_, err := ar.FillBuf()
	require.NoError(t, err)

	for _, n := range []int{1, 2, 3} {
		buffered := ar.Buffered()
		index := ar.index
		ar.Consume(n)
		assert.Equal(t, buffered-n, ar.Buffered())
		assert.Equal(t, index+int64(n), ar.index)
	}
	assert.Equal(t, []byte("gh"), ar.Data())
}

func TestConsumeClamps(t *testing.T) {
	ar := NewAccReaderSize(bytes.NewReader([]byte("abcd")), 8)
	_, err := ar.FillBuf()
	require.NoError(t, err)

	ar.Consume(100)
	assert.Equal(t, 0, ar.Buffered())
	assert.Equal(t, int64(4), ar.index, "index advances by the clamped amount only")

	ar.Consume(-3)
	assert.Equal(t, int64(4), ar.index)
}

func TestReadSmallServedFromBuffer(t *testing.T) {
	src := newTrackedSource([]byte("abcdefgh"))
	ar := NewAccReaderSize(src, 8)
	_, err := ar.FillBuf()
	require.NoError(t, err)
	require.Equal(t, 1, src.reads)

	p := make([]byte, 3)
	n, err := ar.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("abc"), p)
	assert.Equal(t, 1, src.reads, "small reads must not touch the source")
	assert.Equal(t, []byte("defgh"), ar.Data())
}

func TestReadOversizedBypassesBuffer(t *testing.T) {
	src := newTrackedSource([]byte("abcdefghijklmnop"))
	ar := NewAccReaderSize(src, 4)
	_, err := ar.FillBuf()
	require.NoError(t, err)
	ar.Consume(1)

	p := make([]byte, 10)
	n, err := ar.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []byte("bcdefghijk"), p)
	assert.Equal(t, 0, ar.Buffered())
	assert.Equal(t, int64(11), ar.index)

	// The logical position survives the bypass: the next fill continues
	// exactly where the direct read stopped.
	window, err := ar.FillBuf()
	require.NoError(t, err)
	assert.Equal(t, []byte("lmno"), window)
}

func TestReadRoundTrip(t *testing.T) {
	payload := make([]byte, 997)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	for _, chunk := range []int{1, 3, 7, 16, 64} {
		ar := NewAccReaderSize(bytes.NewReader(payload), 16)
		var got []byte
		p := make([]byte, chunk)
		for {
			n, err := ar.Read(p)
			got = append(got, p[:n]...)
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
		}
		assert.Equal(t, payload, got, "chunk size %d", chunk)
	}
}

func TestSeekInWindow(t *testing.T) {
	src := newTrackedSource([]byte("abcdefghij"))
	ar := NewAccReaderSize(src, 8)
	_, err := ar.FillBuf()
	require.NoError(t, err)

	pos, err := ar.Seek(3, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pos)
	assert.Equal(t, []byte("defgh"), ar.Data())
	assert.Equal(t, 0, src.seeks, "in-window absolute seek must not touch the source")

	pos, err = ar.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)
	assert.Equal(t, []byte("fgh"), ar.Data())
	assert.Equal(t, 0, src.seeks, "forward in-window relative seek must not touch the source")
}

func TestSeekOutOfWindow(t *testing.T) {
	src := newTrackedSource([]byte("abcdefghij"))
	ar := NewAccReaderSize(src, 4)
	_, err := ar.FillBuf()
	require.NoError(t, err)
	ar.Consume(2)

	// Negative relative offsets are never served from the buffer, even
	// when the bytes are still physically present before the window.
	pos, err := ar.Seek(-2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, 1, src.seeks)
	assert.Equal(t, int64(2), pos)
	assert.Equal(t, []byte("cdef"), ar.Data(), "source-level seek refills eagerly")

	// End-relative seeks always go to the source.
	pos, err = ar.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, src.seeks)
	assert.Equal(t, int64(9), pos)
	assert.Equal(t, []byte("j"), ar.Data())

	// Absolute targets outside the window go to the source too.
	pos, err = ar.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, 3, src.seeks)
	assert.Equal(t, int64(0), pos)
	assert.Equal(t, []byte("abcd"), ar.Data())
}

func TestSeekFailureKeepsWindow(t *testing.T) {
	errRejected := errors.New("seek rejected")
	inner := bytes.NewReader([]byte("abcdefgh"))
	bs := &brokenSource{Reader: inner, err: errRejected}

	ar := NewAccReaderSize(inner, 4)
	window, err := ar.FillBuf()
	require.NoError(t, err)
	require.Equal(t, []byte("abcd"), window)
	ar.Consume(1)

	// Swap the source for one that fails, then seek out of the window.
	ar.r = bs
	_, err = ar.Seek(100, io.SeekStart)
	assert.Equal(t, errRejected, err, "source errors surface unchanged")
	assert.Equal(t, []byte("bcd"), ar.Data(), "failed seek leaves the window intact")
	assert.Equal(t, int64(1), ar.index)
}

func TestUnwrapDiscardsWindow(t *testing.T) {
	src := bytes.NewReader([]byte("abcdefgh"))
	ar := NewAccReader(src)
	_, err := ar.FillBuf()
	require.NoError(t, err)
	ar.Consume(2)

	r := ar.Unwrap()
	assert.Equal(t, io.ReadSeeker(src), r)
	assert.Equal(t, 0, ar.Buffered())
}

func TestGrowKeepsWindowAcrossRealloc(t *testing.T) {
	src := bytes.NewReader([]byte("abcdefghij"))
	ar := NewAccReaderSize(src, 4)
	_, err := ar.FillBuf()
	require.NoError(t, err)
	ar.Consume(1)

	before := append([]byte(nil), ar.Data()...)
	ar.Grow(16)
	assert.Equal(t, before, ar.Data())
	assert.Equal(t, 20, ar.Capacity())
	assert.Equal(t, 3, ar.Buffered())
}
