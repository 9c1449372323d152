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

package frameset

import (
	"fmt"

	"github.com/assimilation/assimilation-official-sub001/frame"
)

// Signer computes the digest a SignatureFrame carries. Implementations live
// in package keyring, which holds the actual key material; frameset only
// needs the shape.
type Signer interface {
	SigType() byte
	DigestSize() int
	Sign(data []byte) []byte
}

// Verifier checks a received signature. The identity that produced it is
// not known until the digest is read, so Verify is handed the raw
// signature frame rather than a pre-selected key.
type Verifier interface {
	Verify(sig *frame.SignatureFrame, data []byte) bool
}

// Cipher enciphers the bytes of a frameset body that follow its
// EncryptionFrame.
type Cipher interface {
	Algorithm() byte
	KeyID() string
	// Seal returns the nonce used and the ciphertext.
	Seal(plaintext []byte) (nonce []byte, ciphertext []byte, err error)
}

// Decrypter reverses Cipher.Seal given the parameters recorded in the
// EncryptionFrame that was received.
type Decrypter interface {
	Open(algo byte, keyID string, nonce []byte, ciphertext []byte) ([]byte, error)
}

// Compressor is the construct-side half of CompressionFrame handling.
// Decompress doesn't need a pluggable interface: frame.Decompress is pure
// and keyless.
type Compressor interface {
	Algorithm() byte
	Compress(plaintext []byte) []byte
}

// Construct assembles the wire bytes for fs, applying compression then
// encryption to the serialized application frames (inner to outer) and
// finally computing the signature over everything that follows it — the
// two-pass write from the design notes: the signature's digest-sized slot
// is reserved first, the rest of the packet is written, the digest is
// computed over it, and then patched into the reserved slot.
func (fs *FrameSet) Construct(signer Signer, cipher Cipher, compressor Compressor) ([]byte, error) {
	body, err := fs.serializeFrames()
	if err != nil {
		return nil, err
	}

	if compressor != nil {
		origSize := uint32(len(body))
		compressed := compressor.Compress(body)
		compFrame := frame.NewCompression(compressor.Algorithm(), origSize)
		hdr, err := serializeOne(compFrame, 1<<30)
		if err != nil {
			return nil, err
		}
		body = append(hdr, compressed...)
	}

	if cipher != nil {
		nonce, ciphertext, err := cipher.Seal(body)
		if err != nil {
			return nil, fmt.Errorf("frameset: encrypt: %w", err)
		}
		encFrame := frame.NewEncryption(cipher.Algorithm(), cipher.KeyID(), nonce)
		hdr, err := serializeOne(encFrame, 1<<30)
		if err != nil {
			return nil, err
		}
		body = append(hdr, ciphertext...)
	}

	if signer != nil {
		digestSize := signer.DigestSize()
		placeholder := frame.NewSignature(signer.SigType(), make([]byte, digestSize))
		hdr, err := serializeOne(placeholder, 1<<30)
		if err != nil {
			return nil, err
		}
		full := make([]byte, 0, len(hdr)+len(body))
		full = append(full, hdr...)
		full = append(full, body...)
		digest := signer.Sign(body)
		if len(digest) != digestSize {
			return nil, fmt.Errorf("frameset: signer produced %d bytes, want %d", len(digest), digestSize)
		}
		copy(full[len(hdr)-digestSize:len(hdr)], digest)
		body = full
	}

	packet := make([]byte, HeaderSize+len(body))
	writeHeader(packet, fs.Type, fs.Flags, uint32(len(body)))
	copy(packet[HeaderSize:], body)
	return packet, nil
}

func writeHeader(buf []byte, ftype, flags uint16, bodyLen uint32) {
	buf[0] = byte(ftype >> 8)
	buf[1] = byte(ftype)
	buf[2] = byte(flags >> 8)
	buf[3] = byte(flags)
	buf[4] = byte(bodyLen >> 16)
	buf[5] = byte(bodyLen >> 8)
	buf[6] = byte(bodyLen)
}

func readFSHeader(buf []byte) (ftype, flags uint16, bodyLen uint32) {
	ftype = uint16(buf[0])<<8 | uint16(buf[1])
	flags = uint16(buf[2])<<8 | uint16(buf[3])
	bodyLen = uint32(buf[4])<<16 | uint32(buf[5])<<8 | uint32(buf[6])
	return
}
