// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package frameset implements the ordered-collection-of-frames type of §3
// and its wire assembly/parsing of §4.4: header composition, the mandatory
// signature-first/encryption-second/compression-third ordering, and the
// two-pass signature write described in the design notes (reserve the slot,
// write everything else, compute, patch in).
package frameset

import (
	"fmt"

	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/internal/tlv"
	"github.com/assimilation/assimilation-official-sub001/internal/wire"
)

// HeaderSize is the on-wire size of a frameset header: type(2) + flags(2) +
// body_len(3).
const HeaderSize = 7

// FrameSet is an ordered collection of application frames under a single
// type and flags. It owns its frames with shared ownership: the same frame
// instance may be appended to more than one FrameSet (see frame.Ref).
type FrameSet struct {
	Type   uint16
	Flags  uint16
	frames []frame.Frame
}

// New returns an empty FrameSet of the given type and flags.
func New(ftype, flags uint16) *FrameSet {
	return &FrameSet{Type: ftype, Flags: flags}
}

// Append adds a frame to the end of the frameset's member list.
func (fs *FrameSet) Append(f frame.Frame) {
	fs.frames = append(fs.frames, f)
}

// Frames returns the frameset's application frames, excluding any
// signature/encryption/compression prefix (those are supplied separately at
// construct/parse time, never stored as ordinary members).
func (fs *FrameSet) Frames() []frame.Frame {
	return fs.frames
}

// PrependSeqno inserts seq as the connection's ordering identity, the
// reliable transport's "if the frameset has no SeqnoFrame, prepend one"
// rule (§4.7).
func (fs *FrameSet) PrependSeqno(seq *frame.SeqnoFrame) {
	fs.frames = append([]frame.Frame{seq}, fs.frames...)
}

// Find returns the first member frame of the given type, or nil.
func (fs *FrameSet) Find(ftype uint16) frame.Frame {
	for _, f := range fs.frames {
		if f.Type() == ftype {
			return f
		}
	}
	return nil
}

// Seqno returns the frameset's SeqnoFrame (request-id or reply-id form), or
// nil if it carries none — an out-of-band control frameset.
func (fs *FrameSet) Seqno() *frame.SeqnoFrame {
	for _, f := range fs.frames {
		if s, ok := f.(*frame.SeqnoFrame); ok {
			return s
		}
	}
	return nil
}

func serializeOne(f frame.Frame, pktEnd int) ([]byte, error) {
	buf := make([]byte, f.DataSpace())
	n, ok := f.WriteTo(buf, 0, pktEnd)
	if !ok || n != len(buf) {
		return nil, fmt.Errorf("frameset: failed to serialize frame type %d", f.Type())
	}
	return buf, nil
}

func sentinel() []byte {
	buf := make([]byte, wire.HeaderSize)
	tlv.SetU16(buf, 0, wire.HeaderSize, frame.TypeEndSentinel)
	tlv.SetU24(buf, 2, wire.HeaderSize, 0)
	return buf
}

// serializeFrames writes every member frame in order followed by the
// mandatory end-of-frameset sentinel.
func (fs *FrameSet) serializeFrames() ([]byte, error) {
	out := make([]byte, 0, 64)
	for _, f := range fs.frames {
		chunk, err := serializeOne(f, 1<<30)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	out = append(out, sentinel()...)
	return out, nil
}
