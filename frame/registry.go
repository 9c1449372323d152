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

import "fmt"

// Registry is a closed mapping from frame-type codes to the unmarshaller
// that knows how to decode them. Codes with no registered unmarshaller
// decode to Unknown.
type Registry struct {
	byType map[uint16]UnmarshalFunc
}

// NewRegistry returns a Registry preloaded with every frame variant defined
// by this package.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[uint16]UnmarshalFunc, 32)}
	r.Register(TypeSignature, unmarshalSignature)
	r.Register(TypeEncryption, unmarshalEncryption)
	r.Register(TypeCompression, unmarshalCompression)
	r.Register(TypeReqID, unmarshalSeqno)
	r.Register(TypeReplyID, unmarshalSeqno)
	r.Register(TypePacketData, unmarshalBlob)
	r.Register(TypeWallclock, func(buf []byte, ptr, end int) (Frame, error) { return unmarshalInt(buf, ptr, end, 8) })
	r.Register(TypeIfName, unmarshalCstring)
	r.Register(TypeIPAddr, unmarshalAddress)
	r.Register(TypeIPPort, unmarshalIPPort)
	r.Register(TypeHBInterval, func(buf []byte, ptr, end int) (Frame, error) { return unmarshalInt(buf, ptr, end, 4) })
	r.Register(TypeDeadtime, func(buf []byte, ptr, end int) (Frame, error) { return unmarshalInt(buf, ptr, end, 8) })
	r.Register(TypeWarntime, func(buf []byte, ptr, end int) (Frame, error) { return unmarshalInt(buf, ptr, end, 8) })
	r.Register(TypeParamName, unmarshalCstring)
	r.Register(TypeParamValue, unmarshalCstring)
	r.Register(TypeIntValue, func(buf []byte, ptr, end int) (Frame, error) { return unmarshalInt(buf, ptr, end, 4) })
	r.Register(TypeSeqno, unmarshalSeqno)
	r.Register(TypeNVPair, unmarshalNVPair)
	r.Register(TypeHostname, unmarshalCstring)
	r.Register(TypeDiscoveryName, unmarshalCstring)
	r.Register(TypeDiscoveryJSON, unmarshalBlob)
	return r
}

// Register binds a frame-type code to its unmarshaller, overwriting any
// previous registration. Intended for process start-up only.
func (r *Registry) Register(ftype uint16, fn UnmarshalFunc) {
	r.byType[ftype] = fn
}

// Unmarshal decodes the frame at ptr, routing to the registered variant for
// its type code or falling back to Unknown when none is registered.
func (r *Registry) Unmarshal(buf []byte, ptr, end int) (Frame, error) {
	ftype, _, _, ok := readHeader(buf, ptr, end)
	if !ok {
		return nil, fmt.Errorf("frame: truncated header at %d", ptr)
	}
	fn, ok := r.byType[ftype]
	if !ok {
		return unmarshalUnknown(buf, ptr, end)
	}
	return fn(buf, ptr, end)
}
