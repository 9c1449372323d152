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

package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/hkdf"

	"github.com/assimilation/assimilation-official-sub001/frame"
)

// failureCounters tracks repeated signature failures per claimed identity,
// bounded so a flood of distinct bogus identities can't grow it without
// limit; it only informs logging/metrics, never gates verification itself.
var failureCounters, _ = lru.New[string, int](4096)

// FailureCount reports how many consecutive Verify failures have been
// recorded for identity since its last success.
func FailureCount(identity string) int {
	n, _ := failureCounters.Get(identity)
	return n
}

// HMACSigner signs with HMAC-SHA256 keyed by the signing identity's private
// scalar, the simplest of the "hash/MAC algorithm" family named in §4.3.
// It satisfies frameset.Signer.
type HMACSigner struct {
	Registry *Registry
}

func (s *HMACSigner) SigType() byte    { return frame.SigTypeSHA256HMAC }
func (s *HMACSigner) DigestSize() int  { return sha256.Size }

func (s *HMACSigner) Sign(data []byte) []byte {
	kp, ok := s.Registry.SigningKey()
	if !ok {
		return make([]byte, sha256.Size)
	}
	mac := hmac.New(sha256.New, kp.PrivateKey.D.Bytes())
	mac.Write(data)
	return mac.Sum(nil)
}

// HMACVerifier verifies an HMACSigner's output against every key currently
// registered for the claimed sender identity; any match is acceptance,
// mirroring the source's multiple-outstanding-key rotation window.
type HMACVerifier struct {
	Registry *Registry
	Identity string
}

func (v *HMACVerifier) Verify(sig *frame.SignatureFrame, data []byte) bool {
	if sig.SigType() != frame.SigTypeSHA256HMAC {
		v.recordFailure()
		return false
	}
	for _, keyID := range v.Registry.KeysForIdentity(v.Identity) {
		kp, ok := v.Registry.Lookup(keyID)
		if !ok || kp.PrivateKey == nil {
			continue
		}
		mac := hmac.New(sha256.New, kp.PrivateKey.D.Bytes())
		mac.Write(data)
		if hmac.Equal(mac.Sum(nil), sig.Digest()) {
			failureCounters.Remove(v.Identity)
			return true
		}
	}
	v.recordFailure()
	return false
}

func (v *HMACVerifier) recordFailure() {
	n, _ := failureCounters.Get(v.Identity)
	failureCounters.Add(v.Identity, n+1)
}

// ECDHCipher encrypts with AES-256-GCM keyed by an ECDH shared secret
// between the sending identity's private key and the receiver's public
// key, derived through HKDF-SHA256 — the same shape as the teacher's
// rlpx handshake (ECDH agreement feeding a symmetric AEAD), minus the
// session handshake itself since each datagram here is independently
// sealed. It satisfies frameset.Cipher.
type ECDHCipher struct {
	Registry    *Registry
	SenderKeyID string
	ReceiverKey *KeyPair // must carry PublicKey; PrivateKey unused here
}

func deriveAESKey(shared []byte) ([]byte, error) {
	hk := hkdf.New(sha256.New, shared, nil, []byte("assimilation-nanoprobe-aes-gcm"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, err
	}
	return key, nil
}

func ecdhShared(sender *KeyPair, receiver *KeyPair) ([]byte, error) {
	if sender.PrivateKey == nil {
		return nil, fmt.Errorf("keyring: sender key %q has no private half", sender.KeyID)
	}
	x, _ := receiver.PublicKey.Curve.ScalarMult(receiver.PublicKey.X, receiver.PublicKey.Y, sender.PrivateKey.D.Bytes())
	return x.Bytes(), nil
}

func (c *ECDHCipher) Algorithm() byte { return frame.CryptTypeAES256GCM }
func (c *ECDHCipher) KeyID() string   { return c.SenderKeyID }

func (c *ECDHCipher) Seal(plaintext []byte) (nonce, ciphertext []byte, err error) {
	sender, ok := c.Registry.Lookup(c.SenderKeyID)
	if !ok {
		return nil, nil, fmt.Errorf("keyring: unknown sender key %q", c.SenderKeyID)
	}
	shared, err := ecdhShared(sender, c.ReceiverKey)
	if err != nil {
		return nil, nil, err
	}
	key, err := deriveAESKey(shared)
	if err != nil {
		return nil, nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	return nonce, gcm.Seal(nil, nonce, plaintext, nil), nil
}

// ECDHDecrypter reverses ECDHCipher.Seal given the sender key_id recorded
// in the received EncryptionFrame, satisfying frameset.Decrypter.
type ECDHDecrypter struct {
	Registry *Registry
	// LocalKeyID is this node's own key, whose private half completes
	// the ECDH agreement with the sender's public key.
	LocalKeyID string
}

func (d *ECDHDecrypter) Open(algo byte, keyID string, nonce, ciphertext []byte) ([]byte, error) {
	if algo != frame.CryptTypeAES256GCM {
		return nil, fmt.Errorf("keyring: unsupported encryption algorithm %d", algo)
	}
	sender, ok := d.Registry.Lookup(keyID)
	if !ok {
		return nil, fmt.Errorf("keyring: unknown sender key %q", keyID)
	}
	local, ok := d.Registry.Lookup(d.LocalKeyID)
	if !ok || local.PrivateKey == nil {
		return nil, fmt.Errorf("keyring: local key %q unusable", d.LocalKeyID)
	}
	shared, err := ecdhShared(local, sender)
	if err != nil {
		return nil, err
	}
	key, err := deriveAESKey(shared)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// SnappyCompressor is the frameset.Compressor backing CompressionFrame;
// decompression needs no key material so it goes through frame.Decompress
// directly on the parse side.
type SnappyCompressor struct{}

func (SnappyCompressor) Algorithm() byte              { return frame.CompressSnappy }
func (SnappyCompressor) Compress(plain []byte) []byte { return frame.Compress(plain) }
