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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assimilation/assimilation-official-sub001/frame"
)

func mustKeyPair(t *testing.T, keyID, identity string) *KeyPair {
	t.Helper()
	kp, err := GenerateKeyPair(keyID, identity)
	require.NoError(t, err)
	return kp
}

func TestRegistryInsertLookupRotate(t *testing.T) {
	r := NewRegistry()
	k1 := mustKeyPair(t, "k1", "alice")
	r.Insert(k1)

	got, ok := r.Lookup("k1")
	require.True(t, ok)
	require.Same(t, k1, got)
	require.Equal(t, []string{"k1"}, r.KeysForIdentity("alice"))

	k2 := mustKeyPair(t, "k2", "alice")
	r.Insert(k2)
	require.ElementsMatch(t, []string{"k1", "k2"}, r.KeysForIdentity("alice"))

	r.Dissociate("alice", "k1")
	require.Equal(t, []string{"k2"}, r.KeysForIdentity("alice"))

	// The dissociated key is still resolvable by key_id: in-flight
	// verifications against it must keep working.
	_, ok = r.Lookup("k1")
	require.True(t, ok)
}

func TestSetSigningIdentityRequiresPrivateKey(t *testing.T) {
	r := NewRegistry()
	pub, err := GenerateKeyPair("peer", "bob")
	require.NoError(t, err)
	pub.PrivateKey = nil
	r.Insert(pub)

	require.Error(t, r.SetSigningIdentity("peer"))

	mine := mustKeyPair(t, "mine", "me")
	r.Insert(mine)
	require.NoError(t, r.SetSigningIdentity("mine"))

	kp, ok := r.SigningKey()
	require.True(t, ok)
	require.Same(t, mine, kp)
}

func TestHMACSignVerifyRoundTrip(t *testing.T) {
	r := NewRegistry()
	kp := mustKeyPair(t, "k1", "alice")
	r.Insert(kp)
	require.NoError(t, r.SetSigningIdentity("k1"))

	signer := &HMACSigner{Registry: r}
	data := []byte("frameset body bytes")
	digest := signer.Sign(data)

	sig := frame.NewSignature(frame.SigTypeSHA256HMAC, digest)
	verifier := &HMACVerifier{Registry: r, Identity: "alice"}
	require.True(t, verifier.Verify(sig, data))
	require.Equal(t, 0, FailureCount("alice"))
}

func TestHMACVerifyFailureIsCountedAndResetOnSuccess(t *testing.T) {
	r := NewRegistry()
	kp := mustKeyPair(t, "k1", "carol")
	r.Insert(kp)
	require.NoError(t, r.SetSigningIdentity("k1"))

	signer := &HMACSigner{Registry: r}
	verifier := &HMACVerifier{Registry: r, Identity: "carol"}

	bogus := frame.NewSignature(frame.SigTypeSHA256HMAC, make([]byte, 32))
	require.False(t, verifier.Verify(bogus, []byte("whatever")))
	require.False(t, verifier.Verify(bogus, []byte("whatever")))
	require.Equal(t, 2, FailureCount("carol"))

	good := frame.NewSignature(frame.SigTypeSHA256HMAC, signer.Sign([]byte("whatever")))
	require.True(t, verifier.Verify(good, []byte("whatever")))
	require.Equal(t, 0, FailureCount("carol"))
}

func TestECDHSealOpenRoundTrip(t *testing.T) {
	r := NewRegistry()
	sender := mustKeyPair(t, "sender", "alice")
	receiver := mustKeyPair(t, "receiver", "bob")
	r.Insert(sender)
	r.Insert(receiver)

	cipher := &ECDHCipher{Registry: r, SenderKeyID: "sender", ReceiverKey: receiver}
	plaintext := []byte("top secret nanoprobe payload")
	nonce, ciphertext, err := cipher.Seal(plaintext)
	require.NoError(t, err)

	decrypter := &ECDHDecrypter{Registry: r, LocalKeyID: "receiver"}
	out, err := decrypter.Open(cipher.Algorithm(), "sender", nonce, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}

func TestECDHDecrypterRejectsWrongAlgorithm(t *testing.T) {
	r := NewRegistry()
	decrypter := &ECDHDecrypter{Registry: r, LocalKeyID: "receiver"}
	_, err := decrypter.Open(0xff, "sender", nil, nil)
	require.Error(t, err)
}
