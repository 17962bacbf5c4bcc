package radio

import "time"

// eventBufferCapacity bounds the driver's event channel. Publishes never
// block; events beyond capacity are dropped.
const eventBufferCapacity = 32

// EventType classifies driver events.
type EventType int

const (
	// EventPacketReceived fires when the arrival simulation enqueues an
	// inbound packet. The event carries a copy of the packet; the packet
	// also remains queued for ReceivePacket.
	EventPacketReceived EventType = iota
	// EventNetworkJoined fires after a successful JoinNetwork.
	EventNetworkJoined
	// EventNetworkLeft fires on LeaveNetwork and when powering Off severs
	// the network association.
	EventNetworkLeft
	// EventTxFailed fires when a synchronous send goes unacknowledged.
	EventTxFailed
)

func (t EventType) String() string {
	switch t {
	case EventPacketReceived:
		return "packet-received"
	case EventNetworkJoined:
		return "network-joined"
	case EventNetworkLeft:
		return "network-left"
	case EventTxFailed:
		return "tx-failed"
	default:
		return "unknown"
	}
}

// Event is a driver notification. Packet is set only for
// EventPacketReceived.
type Event struct {
	Type   EventType
	Packet *Packet
	Time   time.Time
}

// Events returns the driver's notification channel. It replaces callback
// registration: the driver enqueues notifications and the caller drains them
// at its own pace, so driver internals never re-enter caller code. The
// channel is closed by Close.
func (d *Driver) Events() <-chan Event {
	return d.events
}

// publishEvent enqueues ev without blocking. Callers hold d.mu.
func (d *Driver) publishEvent(ev Event) {
	select {
	case d.events <- ev:
	default:
		// Bounded channel: a slow consumer loses events rather than
		// stalling the driver.
	}
}
