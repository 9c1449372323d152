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

	"github.com/golang/snappy"
)

// Signature algorithm identifiers, carried as the first byte of a
// SignatureFrame's value.
const (
	SigTypeSHA256HMAC = byte(1)
)

// SignatureFrame's value begins with a 1-byte algorithm code identifying
// the hash/MAC in use; the remaining bytes are the signature proper. It
// must be the first frame of any frameset that carries one, and covers
// every byte of the frameset that follows it, including the end-of-frameset
// sentinel.
type SignatureFrame struct{ baseFrame }

func NewSignature(sigType byte, digest []byte) *SignatureFrame {
	v := make([]byte, 1+len(digest))
	v[0] = sigType
	copy(v[1:], digest)
	return &SignatureFrame{baseFrame{ftype: TypeSignature, value: v}}
}

func (f *SignatureFrame) SigType() byte    { return f.value[0] }
func (f *SignatureFrame) Digest() []byte   { return f.value[1:] }
func (f *SignatureFrame) SetDigest(d []byte) {
	copy(f.value[1:], d)
}

func (f *SignatureFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && len(v) >= 1
}

func unmarshalSignature(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || len(v) < 1 {
		return nil, fmt.Errorf("frame: signature: value too short")
	}
	_ = t
	return &SignatureFrame{baseFrame{ftype: TypeSignature, value: append([]byte(nil), v...)}}, nil
}

// Encryption algorithm identifiers.
const (
	CryptTypeAES256GCM = byte(1)
)

// EncryptionFrame identifies the algorithm and parameters (e.g. the nonce)
// used to encipher every byte of the frameset that follows it.
type EncryptionFrame struct{ baseFrame }

func NewEncryption(algo byte, keyID string, nonce []byte) *EncryptionFrame {
	idBytes := append([]byte(keyID), 0)
	v := make([]byte, 0, 1+len(idBytes)+len(nonce))
	v = append(v, algo)
	v = append(v, idBytes...)
	v = append(v, nonce...)
	return &EncryptionFrame{baseFrame{ftype: TypeEncryption, value: v}}
}

func (f *EncryptionFrame) Algorithm() byte { return f.value[0] }

func (f *EncryptionFrame) KeyID() string {
	for i := 1; i < len(f.value); i++ {
		if f.value[i] == 0 {
			return string(f.value[1:i])
		}
	}
	return ""
}

func (f *EncryptionFrame) Nonce() []byte {
	for i := 1; i < len(f.value); i++ {
		if f.value[i] == 0 {
			return f.value[i+1:]
		}
	}
	return nil
}

func (f *EncryptionFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	return ok && len(v) >= 1
}

func unmarshalEncryption(buf []byte, ptr, end int) (Frame, error) {
	_, v, _, ok := readHeader(buf, ptr, end)
	if !ok || len(v) < 1 {
		return nil, fmt.Errorf("frame: encryption: value too short")
	}
	return &EncryptionFrame{baseFrame{ftype: TypeEncryption, value: append([]byte(nil), v...)}}, nil
}

// Compression algorithm identifiers.
const (
	CompressSnappy = byte(1)
)

// MaxDecompressedSize bounds the after-decompression size of any
// CompressionFrame payload, preventing zip-bomb expansion per §4.3.
const MaxDecompressedSize = 16 * 1024 * 1024

// CompressionFrame identifies the algorithm and carries the original
// (decompressed) size as a 32-bit prefix, per §4.3; the compressed bytes
// themselves are not part of the frame's own value, they are the bytes of
// the frameset body that follow it.
type CompressionFrame struct{ baseFrame }

func NewCompression(algo byte, origSize uint32) *CompressionFrame {
	v := make([]byte, 5)
	v[0] = algo
	binary.BigEndian.PutUint32(v[1:], origSize)
	return &CompressionFrame{baseFrame{ftype: TypeCompression, value: v}}
}

func (f *CompressionFrame) Algorithm() byte   { return f.value[0] }
func (f *CompressionFrame) OrigSize() uint32  { return binary.BigEndian.Uint32(f.value[1:]) }

func (f *CompressionFrame) IsValid(buf []byte, ptr, end int) bool {
	_, v, _, ok := readHeader(buf, ptr, end)
	if !ok || len(v) != 5 {
		return false
	}
	return binary.BigEndian.Uint32(v[1:]) <= MaxDecompressedSize
}

func unmarshalCompression(buf []byte, ptr, end int) (Frame, error) {
	t, v, _, ok := readHeader(buf, ptr, end)
	if !ok || len(v) != 5 {
		return nil, fmt.Errorf("frame: compression: expected 5 value bytes")
	}
	if binary.BigEndian.Uint32(v[1:]) > MaxDecompressedSize {
		return nil, fmt.Errorf("frame: compression: declared size exceeds ceiling")
	}
	_ = t
	return &CompressionFrame{baseFrame{ftype: TypeCompression, value: append([]byte(nil), v...)}}, nil
}

// Compress snappy-compresses payload, bounded by MaxDecompressedSize on the
// decompressed side (checked by the caller before calling Decompress).
func Compress(payload []byte) []byte {
	return snappy.Encode(nil, payload)
}

// Decompress reverses Compress, refusing to produce more than
// MaxDecompressedSize bytes regardless of what the compressed stream claims.
func Decompress(compressed []byte, origSize uint32) ([]byte, error) {
	if origSize > MaxDecompressedSize {
		return nil, fmt.Errorf("frame: decompress: declared size %d exceeds ceiling", origSize)
	}
	n, err := snappy.DecodedLen(compressed)
	if err != nil {
		return nil, fmt.Errorf("frame: decompress: %w", err)
	}
	if uint32(n) != origSize {
		return nil, fmt.Errorf("frame: decompress: size mismatch, got %d want %d", n, origSize)
	}
	out, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("frame: decompress: %w", err)
	}
	if uint32(len(out)) != origSize {
		return nil, fmt.Errorf("frame: decompress: size mismatch, got %d want %d", len(out), origSize)
	}
	return out, nil
}
