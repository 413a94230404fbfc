// File: iocp/pool_test.go

package iocp

import "testing"

func TestBufferPoolRecyclesOnOwningThread(t *testing.T) {
	pool := NewBufferPool(64)
	if pool.Capacity() != 64 {
		t.Fatalf("Capacity() = %d, want 64", pool.Capacity())
	}

	b := pool.Get()
	if len(b.Data) != 64 {
		t.Fatalf("Get() len = %d, want 64", len(b.Data))
	}
	backing := &b.Data[0]

	b.Release()
	b2 := pool.Get()
	if &b2.Data[0] != backing {
		t.Fatalf("Release/Get did not recycle the same backing array")
	}
}

func TestBufferWithLengthSetsLengthWithinCapacity(t *testing.T) {
	b := Buffer{Data: make([]byte, 0, 32)}
	b = b.WithLength(10)
	if len(b.Data) != 10 {
		t.Fatalf("len(Data) = %d, want 10", len(b.Data))
	}
	if cap(b.Data) != 32 {
		t.Fatalf("cap(Data) = %d, want 32", cap(b.Data))
	}
}

func TestOutcomePairsErrorWithItsBuffer(t *testing.T) {
	want := Buffer{Data: make([]byte, 4)}
	out := Outcome{Buffer: want, Err: Internal("boom")}
	if out.Err == nil || out.Err.Error() != "boom" {
		t.Fatalf("Err = %v, want boom", out.Err)
	}
	if len(out.Buffer.Data) != 4 {
		t.Fatalf("Buffer not preserved alongside Err")
	}
}

func TestMinAcceptBufferSize(t *testing.T) {
	if MinAcceptBufferSize != 2*AddressLength {
		t.Fatalf("MinAcceptBufferSize = %d, want %d", MinAcceptBufferSize, 2*AddressLength)
	}
	if AddressLength < 16 {
		t.Fatalf("AddressLength = %d, want at least sizeof(SOCKADDR_IN)", AddressLength)
	}
}
