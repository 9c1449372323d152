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
	"errors"
	"fmt"
	"time"

	"github.com/assimilation/assimilation-official-sub001/frame"
	"github.com/assimilation/assimilation-official-sub001/internal/wire"
)

// ErrBadSignature is returned by ParseOne when a present signature frame's
// digest does not verify, and by the caller of Verifier.Verify in general.
var ErrBadSignature = errors.New("frameset: signature verification failed")

// ErrBadOrdering is returned when the signature/encryption/compression
// prefix of a frameset body is not contiguous and in that order.
var ErrBadOrdering = errors.New("frameset: signature/encryption/compression out of order")

// CryptoContext supplies the pluggable verify/decrypt operations ParseOne
// needs when a frameset carries a signature and/or encryption frame. A nil
// field means "reject any frameset that uses this feature".
type CryptoContext struct {
	Verifier  Verifier
	Decrypter Decrypter
}

// ParseOne decodes exactly one frameset starting at offset in buf, bounded
// by end, and returns the offset of the byte just past it. It enforces the
// ordering invariant of §4.4 and, if crypto is supplied, the signature and
// decryption steps; a violation of either is reported as an error rather
// than silently accepted, per the open question in design note §9.
func ParseOne(buf []byte, offset, end int, reg *frame.Registry, crypto *CryptoContext) (*FrameSet, int, error) {
	if offset+HeaderSize > end {
		return nil, 0, fmt.Errorf("frameset: truncated header")
	}
	ftype, flags, bodyLen := readFSHeader(buf[offset:])
	bodyStart := offset + HeaderSize
	bodyEnd := bodyStart + int(bodyLen)
	if bodyEnd > end {
		return nil, 0, fmt.Errorf("frameset: body_len %d overruns packet", bodyLen)
	}
	body := buf[bodyStart:bodyEnd]

	ptr := 0
	stage := 0 // 0=expect signature, 1=expect encryption, 2=expect compression, 3=app frames
	sigEnd := 0
	var sigFrame *frame.SignatureFrame
	var encFrame *frame.EncryptionFrame
	var compFrame *frame.CompressionFrame

	for ptr < len(body) {
		t, ok := wire.Type(body, ptr, len(body))
		if !ok {
			return nil, 0, fmt.Errorf("frameset: truncated frame header in prefix")
		}
		switch {
		case t == frame.TypeSignature && stage == 0:
			f, err := reg.Unmarshal(body, ptr, len(body))
			if err != nil {
				return nil, 0, err
			}
			sigFrame = f.(*frame.SignatureFrame)
			ptr += f.DataSpace()
			sigEnd = ptr
			stage = 1
		case t == frame.TypeEncryption && stage <= 1:
			f, err := reg.Unmarshal(body, ptr, len(body))
			if err != nil {
				return nil, 0, err
			}
			encFrame = f.(*frame.EncryptionFrame)
			ptr += f.DataSpace()
			stage = 2
		case t == frame.TypeCompression && stage <= 2:
			f, err := reg.Unmarshal(body, ptr, len(body))
			if err != nil {
				return nil, 0, err
			}
			compFrame = f.(*frame.CompressionFrame)
			ptr += f.DataSpace()
			stage = 3
			if nt, ok := wire.Type(body, ptr, len(body)); ok &&
				(nt == frame.TypeSignature || nt == frame.TypeEncryption || nt == frame.TypeCompression) {
				return nil, 0, ErrBadOrdering
			}
		case (t == frame.TypeSignature || t == frame.TypeEncryption || t == frame.TypeCompression):
			// one of these codes reappearing outside the allowed
			// prefix positions: ordering violation.
			return nil, 0, ErrBadOrdering
		default:
			stage = 3
		}
		if stage == 3 {
			break
		}
	}

	// signedRange is every byte following the signature frame itself —
	// the encryption frame's header and ciphertext, or the compression
	// frame and compressed payload, or the raw application frames,
	// whichever follows — exactly what Construct fed to Signer.Sign.
	// inner is the cursor the remaining prefix left behind; it still
	// needs decrypting and/or decompressing before it holds frame data.
	signedRange := body[sigEnd:]
	inner := body[ptr:]

	if sigFrame != nil {
		if crypto == nil || crypto.Verifier == nil || !crypto.Verifier.Verify(sigFrame, signedRange) {
			return nil, 0, ErrBadSignature
		}
	}

	if encFrame != nil {
		if crypto == nil || crypto.Decrypter == nil {
			return nil, 0, fmt.Errorf("frameset: received encrypted frameset with no decrypter configured")
		}
		plain, err := crypto.Decrypter.Open(encFrame.Algorithm(), encFrame.KeyID(), encFrame.Nonce(), inner)
		if err != nil {
			return nil, 0, fmt.Errorf("frameset: decrypt: %w", err)
		}
		inner = plain

		// A compression frame applied before encryption is wrapped
		// inside the ciphertext and invisible to the prefix scan above;
		// re-scan the freshly decrypted buffer for one now.
		if compFrame == nil && len(inner) > 0 {
			if t, ok := wire.Type(inner, 0, len(inner)); ok && t == frame.TypeCompression {
				f, err := reg.Unmarshal(inner, 0, len(inner))
				if err != nil {
					return nil, 0, err
				}
				compFrame = f.(*frame.CompressionFrame)
				inner = inner[f.DataSpace():]
			}
		}
	}

	if compFrame != nil {
		plain, err := frame.DecompressBudgeted(inner, compFrame.OrigSize(), 2*time.Second)
		if err != nil {
			return nil, 0, err
		}
		inner = plain
	}

	fs := New(ftype, flags)
	innerEnd := len(inner)
	for p := 0; p < innerEnd; {
		t, ok := wire.Type(inner, p, innerEnd)
		if !ok {
			break
		}
		if t == frame.TypeEndSentinel {
			break
		}
		f, err := reg.Unmarshal(inner, p, innerEnd)
		if err != nil {
			// A frame whose decoded size would exceed the
			// remaining body aborts this frameset.
			break
		}
		fs.Append(f)
		p += f.DataSpace()
	}

	return fs, bodyEnd, nil
}
