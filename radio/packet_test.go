package radio

import "testing"

func TestPacketQueueFIFO(t *testing.T) {
	var q packetQueue
	for i := 0; i < 5; i++ {
		if !q.push(Packet{ID: uint16(i)}) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if q.len() != 5 {
		t.Fatalf("len = %d, want 5", q.len())
	}
	for i := 0; i < 5; i++ {
		p, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		if p.ID != uint16(i) {
			t.Fatalf("pop %d: ID = %d, want %d", i, p.ID, i)
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatal("pop on empty queue succeeded")
	}
}

func TestPacketQueueRejectsWhenFull(t *testing.T) {
	var q packetQueue
	for i := 0; i < RxBufferCapacity; i++ {
		if !q.push(Packet{ID: uint16(i)}) {
			t.Fatalf("push %d rejected before capacity", i)
		}
	}
	if !q.full() {
		t.Fatal("queue not full at capacity")
	}
	if q.push(Packet{ID: 999}) {
		t.Fatal("push beyond capacity succeeded")
	}

	// The oldest packet must be intact, not overwritten.
	p, ok := q.pop()
	if !ok || p.ID != 0 {
		t.Fatalf("pop = (%v, %v), want ID 0", p.ID, ok)
	}
}

func TestPacketQueueWraparound(t *testing.T) {
	var q packetQueue
	id := uint16(0)
	// Cycle enough packets through to wrap the ring several times.
	for round := 0; round < 3; round++ {
		for i := 0; i < RxBufferCapacity; i++ {
			if !q.push(Packet{ID: id}) {
				t.Fatalf("push %d rejected", id)
			}
			id++
		}
		for i := 0; i < RxBufferCapacity; i++ {
			p, ok := q.pop()
			if !ok {
				t.Fatal("pop failed mid-cycle")
			}
			want := uint16(round*RxBufferCapacity + i)
			if p.ID != want {
				t.Fatalf("pop: ID = %d, want %d", p.ID, want)
			}
		}
	}
	if q.len() != 0 {
		t.Fatalf("len = %d after draining, want 0", q.len())
	}
}
