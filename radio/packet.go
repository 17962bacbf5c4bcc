package radio

import "time"

// Priority orders packets on a congested network. The simulation records it
// but does not reorder.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Packet is one unit of exchange on the simulated network. Callers construct
// packets for sends; the simulator constructs them for receives.
type Packet struct {
	Destination Address
	Source      Address
	ID          uint16
	Priority    Priority

	// Payload is bounded by MaxPayloadSize.
	Payload []byte

	Timestamp  time.Time
	RequireACK bool
	RetryCount uint8
}

// packetQueue is a fixed-capacity FIFO ring for inbound packets. A full
// queue rejects new arrivals; it never overwrites queued packets. Callers
// synchronize externally (the driver holds its mutex).
type packetQueue struct {
	buf   [RxBufferCapacity]Packet
	head  int
	tail  int
	count int
}

func (q *packetQueue) len() int  { return q.count }
func (q *packetQueue) full() bool { return q.count == len(q.buf) }

// push enqueues p at the head. It reports false, dropping p, when the queue
// is full.
func (q *packetQueue) push(p Packet) bool {
	if q.full() {
		return false
	}
	q.buf[q.head] = p
	q.head = (q.head + 1) % len(q.buf)
	q.count++
	return true
}

// pop dequeues the oldest packet from the tail.
func (q *packetQueue) pop() (Packet, bool) {
	if q.count == 0 {
		return Packet{}, false
	}
	p := q.buf[q.tail]
	q.buf[q.tail] = Packet{}
	q.tail = (q.tail + 1) % len(q.buf)
	q.count--
	return p, true
}
