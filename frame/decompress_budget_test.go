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
	"testing"
	"time"
)

func TestDecompressBudgetCountSimple(t *testing.T) {
	b := newDecompressBudget(2000)

	checkacquire := func(count, wantVal uint32, wantErr bool) {
		t.Helper()
		err := b.waitAcquire(count, 10*time.Millisecond)
		if (err != nil) != wantErr {
			t.Fatalf("waitAcquire(%d): got err %v, want err=%v", count, err, wantErr)
		}
		if val := b.val; val != wantVal {
			t.Fatalf("waitAcquire(%d): val = %d, want %d", count, val, wantVal)
		}
	}
	checkrelease := func(count, wantVal uint32) {
		t.Helper()
		b.release(count)
		if val := b.val; val != wantVal {
			t.Fatalf("release(%d): val = %d, want %d", count, val, wantVal)
		}
	}

	checkacquire(1000, 1000, false)
	checkacquire(1000, 0, false)
	checkacquire(1000, 0, true)
	checkrelease(900, 900)
	checkrelease(900, 1800)
	checkrelease(199, 1999)
	checkrelease(1, 2000)

	checkacquire(2001, 2000, true)
}

func TestDecompressBudgetReleaseWakesWaiter(t *testing.T) {
	b := newDecompressBudget(100)
	if err := b.waitAcquire(100, time.Second); err != nil {
		t.Fatalf("initial acquire: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- b.waitAcquire(50, time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	b.release(100)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waitAcquire after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waitAcquire never woke up after release")
	}
}

func TestDecompressBudgetedRejectsOversizeDeclaration(t *testing.T) {
	_, err := DecompressBudgeted([]byte{0x00}, MaxDecompressedSize+1, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected error for declared size exceeding ceiling")
	}
}

func TestDecompressBudgetedRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated for good measure")
	compressed := Compress(payload)

	out, err := DecompressBudgeted(compressed, uint32(len(payload)), time.Second)
	if err != nil {
		t.Fatalf("DecompressBudgeted: %v", err)
	}
	if string(out) != string(payload) {
		t.Fatalf("round trip mismatch: got %q, want %q", out, payload)
	}
}
