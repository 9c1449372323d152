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

// Package keyring implements the process-wide public-key registry of §3:
// a bidirectional key_id <-> (public, private?) mapping plus an identity ->
// key_id index, and the signing/encryption plug-ins built on top of it.
// Key material is immutable once inserted; rotation is insert-then-dissociate,
// never in-place mutation, so a reader holding a *KeyPair never observes a
// partially-rotated key.
package keyring

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
)

// KeyPair is one entry in the registry: a public key, and — only for keys
// this node holds the private half of — the private key too.
type KeyPair struct {
	KeyID      string
	Identity   string
	PublicKey  *ecdsa.PublicKey
	PrivateKey *ecdsa.PrivateKey // nil for peers' keys
}

// Registry is the process-wide (but explicitly owned, not global — see
// design note on NanoRuntime) bidirectional key_id<->key and
// identity->key_id mapping.
type Registry struct {
	mu          sync.RWMutex
	byID        map[string]*KeyPair
	byIdentity  map[string][]string
	signingID   string
}

// NewRegistry returns an empty key registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:       make(map[string]*KeyPair),
		byIdentity: make(map[string][]string),
	}
}

// Insert adds kp to the registry. Rotation of an identity's key is done by
// inserting the new KeyPair under a new key_id and then calling Dissociate
// on the old one — the old KeyPair value itself is never mutated.
func (r *Registry) Insert(kp *KeyPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[kp.KeyID] = kp
	r.byIdentity[kp.Identity] = append(r.byIdentity[kp.Identity], kp.KeyID)
}

// Dissociate removes a key_id from its identity's active list without
// deleting the key itself, so in-flight verifications against it still
// succeed.
func (r *Registry) Dissociate(identity, keyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.byIdentity[identity]
	for i, id := range ids {
		if id == keyID {
			r.byIdentity[identity] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// Lookup returns the KeyPair for a key_id.
func (r *Registry) Lookup(keyID string) (*KeyPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kp, ok := r.byID[keyID]
	return kp, ok
}

// KeysForIdentity returns the currently-associated key_ids for an identity.
func (r *Registry) KeysForIdentity(identity string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.byIdentity[identity]))
	copy(out, r.byIdentity[identity])
	return out
}

// SetSigningIdentity selects which key_id outbound framesets are signed
// with. The key must already hold a private half.
func (r *Registry) SetSigningIdentity(keyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kp, ok := r.byID[keyID]
	if !ok || kp.PrivateKey == nil {
		return fmt.Errorf("keyring: %q is not a usable signing key", keyID)
	}
	r.signingID = keyID
	return nil
}

// SigningKey returns the KeyPair currently selected for outbound signing.
func (r *Registry) SigningKey() (*KeyPair, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.signingID == "" {
		return nil, false
	}
	kp := r.byID[r.signingID]
	return kp, kp != nil
}

// GenerateKeyPair creates a fresh P-256 identity, the curve the rest of
// this package's ECDH key agreement assumes.
func GenerateKeyPair(keyID, identity string) (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keyring: generate: %w", err)
	}
	return &KeyPair{KeyID: keyID, Identity: identity, PublicKey: &priv.PublicKey, PrivateKey: priv}, nil
}

// LoadDir loads every "<key_id>.pub" and "<key_id>.priv" file pair from dir,
// the on-disk layout named in §6. Public files are required; a matching
// private file is optional (peers' keys have none).
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("keyring: read key dir: %w", err)
	}
	r := NewRegistry()
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) != ".pub" {
			continue
		}
		keyID := name[:len(name)-len(".pub")]
		pubBytes, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		pub, err := decodePublicKey(pubBytes)
		if err != nil {
			return nil, fmt.Errorf("keyring: %s: %w", name, err)
		}
		kp := &KeyPair{KeyID: keyID, Identity: keyID, PublicKey: pub}
		privPath := filepath.Join(dir, keyID+".priv")
		if privBytes, err := os.ReadFile(privPath); err == nil {
			priv, err := decodePrivateKey(privBytes, pub)
			if err != nil {
				return nil, fmt.Errorf("keyring: %s.priv: %w", keyID, err)
			}
			kp.PrivateKey = priv
		}
		r.Insert(kp)
	}
	return r, nil
}

// Save writes kp's public (and, if present, private) key files into dir
// using the "<key_id>.{pub,priv}" naming from §6.
func Save(dir string, kp *KeyPair) error {
	pubHex := hex.EncodeToString(elliptic.Marshal(kp.PublicKey.Curve, kp.PublicKey.X, kp.PublicKey.Y))
	if err := os.WriteFile(filepath.Join(dir, kp.KeyID+".pub"), []byte(pubHex), 0o644); err != nil {
		return err
	}
	if kp.PrivateKey != nil {
		privHex := hex.EncodeToString(kp.PrivateKey.D.Bytes())
		if err := os.WriteFile(filepath.Join(dir, kp.KeyID+".priv"), []byte(privHex), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func decodePublicKey(asciiHex []byte) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(string(asciiHex))
	if err != nil {
		return nil, err
	}
	curve := elliptic.P256()
	x, y := elliptic.Unmarshal(curve, raw)
	if x == nil {
		return nil, fmt.Errorf("invalid public key encoding")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func decodePrivateKey(asciiHex []byte, pub *ecdsa.PublicKey) (*ecdsa.PrivateKey, error) {
	raw, err := hex.DecodeString(string(asciiHex))
	if err != nil {
		return nil, err
	}
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey = *pub
	priv.D = new(big.Int).SetBytes(raw)
	return priv, nil
}
