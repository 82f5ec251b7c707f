// Package format
// Probe-and-dispatch shell over the accumulator reader: handlers register
// a probe and a demuxer factory, and the registry picks one by inspecting
// the buffered window without consuming a single byte.
// Created by RTT.
// Author: teocci@yandex.com on 2021-Dec-02
package format

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/teocci/go-stream-buf/av"
	"github.com/teocci/go-stream-buf/buffer"
)

// RegisterHandler is filled in by a container format package to hook
// itself into a Handlers registry.
type RegisterHandler struct {
	Ext           string
	Probe         func(b []byte) bool
	ReaderDemuxer func(r *buffer.AccReader) av.Demuxer
	CodecTypes    []av.CodecType
}

type Handlers struct {
	handlers []RegisterHandler
}

func (h *Handlers) Add(fn func(*RegisterHandler)) {
	handler := &RegisterHandler{}
	fn(handler)
	h.handlers = append(h.handlers, *handler)
}

// NewDemuxer fills the reader's window once and hands the reader to the
// first handler whose probe accepts the buffered bytes. Probing consumes
// nothing: the matched demuxer sees the stream from its very first byte.
func (h *Handlers) NewDemuxer(ar *buffer.AccReader) (demuxer av.Demuxer, err error) {
	var b []byte
	if b, err = ar.FillBuf(); err != nil {
		return
	}
	for _, handler := range h.handlers {
		if handler.Probe != nil && handler.ReaderDemuxer != nil && handler.Probe(b) {
			demuxer = handler.ReaderDemuxer(ar)
			return
		}
	}
	err = fmt.Errorf("format: no handler matched the stream")
	return
}

// NewDemuxerExt picks a handler by file extension instead of probing.
func (h *Handlers) NewDemuxerExt(ar *buffer.AccReader, ext string) (demuxer av.Demuxer, err error) {
	ext = strings.ToLower(ext)
	for _, handler := range h.handlers {
		if handler.Ext == ext && handler.ReaderDemuxer != nil {
			demuxer = handler.ReaderDemuxer(ar)
			return
		}
	}
	err = fmt.Errorf("format: no handler registered for %q", ext)
	return
}

type demuxCloser struct {
	av.Demuxer
	c io.Closer
}

func (dc demuxCloser) Close() error {
	return dc.c.Close()
}

// Open opens the file at uri, wraps it in an accumulator reader and
// resolves a demuxer for it, by extension first and by probe otherwise.
func (h *Handlers) Open(uri string) (demuxer av.DemuxCloser, err error) {
	var f *os.File
	if f, err = os.Open(uri); err != nil {
		return
	}

	ar := buffer.NewAccReader(f)
	var inner av.Demuxer
	if ext := path.Ext(uri); ext != "" {
		inner, err = h.NewDemuxerExt(ar, ext)
	} else {
		err = fmt.Errorf("format: no extension")
	}
	if err != nil {
		if inner, err = h.NewDemuxer(ar); err != nil {
			f.Close()
			return
		}
	}
	demuxer = demuxCloser{Demuxer: inner, c: f}
	return
}

// DefaultHandlers is the registry format packages hook into.
var DefaultHandlers = &Handlers{}

// Open resolves a demuxer for the file at uri using DefaultHandlers.
func Open(uri string) (av.DemuxCloser, error) {
	return DefaultHandlers.Open(uri)
}
