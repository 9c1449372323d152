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

package frame

import (
	"encoding/binary"
	"fmt"
)

// SeqnoFrame carries (session_id: u32, request_id: u64, queue_id: u16),
// 14 value bytes total, the identity the reliable transport orders and
// acknowledges framesets by.
type SeqnoFrame struct{ baseFrame }

func NewSeqno(ftype uint16, sessionID uint32, requestID uint64, queueID uint16) *SeqnoFrame {
	v := make([]byte, 14)
	binary.BigEndian.PutUint32(v, sessionID)
	binary.BigEndian.PutUint64(v[4:], requestID)
	binary.BigEndian.PutUint16(v[12:], queueID)
	return &SeqnoFrame{baseFrame{ftype: ftype, value: v}}
}

func (f *SeqnoFrame) SessionID() uint32 { return binary.BigEndian.Uint32(f.value) }
func (f *SeqnoFrame) RequestID() uint64 { return binary.BigEndian.Uint64(f.value[4:]) }
func (f *SeqnoFrame) QueueID() uint16   { return binary.BigEndian.Uint16(f.value[12:]) }

// Equal reports whether two seqnos name the same (session, request, queue).
func (f *SeqnoFrame) Equal(o *SeqnoFrame) bool {
	return f.SessionID() == o.SessionID() && f.RequestID() == o.RequestID() && f.QueueID() == o.QueueID()
}

// Less orders by session_id, then request_id, then queue_id.
func (f *SeqnoFrame) Less(o *SeqnoFrame) bool {
	if f.SessionID() != o.SessionID() {
		return f.SessionID() < o.SessionID()
	}
	if f.RequestID() != o.RequestID() {
		return f.RequestID() < o.RequestID()
	}
	return f.QueueID() < o.QueueID()
}

func (f *SeqnoFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && len(v) == 14
}

func unmarshalSeqno(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || len(v) != 14 {
		return nil, fmt.Errorf("frame: seqno: expected 14 value bytes")
	}
	return &SeqnoFrame{baseFrame{ftype: t, value: append([]byte(nil), v...)}}, nil
}
