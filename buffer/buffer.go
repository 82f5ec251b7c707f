// Package buffer
// Byte ingestion layer for container demuxers: a partial-consumption
// buffered reader over any seekable source.
// Created by RTT.
// Author: teocci@yandex.com on 2021-Dec-02
package buffer

// DefaultCapacity is the lookahead window allocated by NewAccReader.
const DefaultCapacity = 4096

// Buffered is the lookahead capability a demuxer needs from its input:
// inspect the unconsumed window without using it, and widen the window
// when a record is larger than the current capacity allows.
type Buffered interface {
	Data() []byte
	Grow(n int)
}
