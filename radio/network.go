package radio

import (
	"time"

	"github.com/signalsfoundry/peripheral-simulator/internal/logging"
)

// HopUnreachable is the hop-count sentinel for a radio with no route to a
// network.
const HopUnreachable = 255

// NetworkInfo describes a network as seen by the radio, either from a scan
// or from the association the radio currently holds.
type NetworkInfo struct {
	NetworkID        uint16
	ConnectedDevices int

	// SignalStrength is the measured RSSI toward the network, in dBm.
	SignalStrength int

	// LinkQuality ranges 0-100.
	LinkQuality int

	// Uptime is how long the network has been up. In scan results it is
	// the surveyed network's advertised uptime; for the radio's own
	// association it counts from the successful join.
	Uptime time.Duration

	IsGateway bool

	// HopCount is the mesh distance to the network, HopUnreachable when
	// there is no route.
	HopCount int
}

// ScanNetworks surveys the area and returns up to maxNetworks discovered
// networks. The simulation synthesizes between one and five entries; the
// first is always a gateway. The radio must be powered; scanTime is accepted
// for interface fidelity but the simulated survey completes immediately.
func (d *Driver) ScanNetworks(maxNetworks int, scanTime time.Duration) ([]NetworkInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	if maxNetworks <= 0 {
		return nil, ErrInvalidParam
	}
	if d.state == PowerOff {
		return nil, ErrPowerFailure
	}
	_ = scanTime

	n := 1 + d.rng.Intn(5)
	if n > maxNetworks {
		n = maxNetworks
	}

	found := make([]NetworkInfo, n)
	for i := range found {
		found[i] = NetworkInfo{
			NetworkID:        uint16(1000 + i),
			ConnectedDevices: 1 + d.rng.Intn(10),
			SignalStrength:   d.simulateRSSI(),
			LinkQuality:      50 + d.rng.Intn(50),
			Uptime:           time.Duration(d.rng.Intn(86400)) * time.Second,
			IsGateway:        i == 0,
			HopCount:         1 + d.rng.Intn(5),
		}
	}
	d.log.Debug("network scan complete", logging.Int("found", n))
	return found, nil
}

// JoinNetwork associates the radio with a network using the given 16-byte
// key. A fixed fraction of attempts times out. On success the association is
// recorded with its uptime starting at zero and an EventNetworkJoined is
// published.
func (d *Driver) JoinNetwork(networkID uint16, key []byte, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	if d.state == PowerOff {
		return ErrPowerFailure
	}
	if key == nil || len(key) != NetworkKeySize {
		return ErrInvalidParam
	}
	_ = timeout

	if d.rng.Intn(100) < joinFailPercent {
		d.stats.Timeouts++
		d.log.Warn("join timed out", logging.Int("network_id", int(networkID)))
		return ErrTimeout
	}

	now := d.clock.Now()
	d.network = NetworkInfo{
		NetworkID:        networkID,
		ConnectedDevices: 1 + d.rng.Intn(10),
		SignalStrength:   d.simulateRSSI(),
		LinkQuality:      70 + d.rng.Intn(30),
		IsGateway:        false,
		HopCount:         1 + d.rng.Intn(5),
	}
	d.connected = true
	d.uptimeSince = now
	d.publishEvent(Event{Type: EventNetworkJoined, Time: now})
	d.log.Info("joined network", logging.Int("network_id", int(networkID)))
	return nil
}

// LeaveNetwork severs the current association. The hop count falls to
// HopUnreachable and link quality to zero; an EventNetworkLeft is published
// if the radio was associated.
func (d *Driver) LeaveNetwork() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}

	wasConnected := d.connected
	d.connected = false
	d.network.HopCount = HopUnreachable
	d.network.LinkQuality = 0
	if wasConnected {
		d.publishEvent(Event{Type: EventNetworkLeft, Time: d.clock.Now()})
		d.log.Info("left network", logging.Int("network_id", int(d.network.NetworkID)))
	}
	return nil
}

// GetNetworkInfo reports the current association with a freshly measured
// signal strength and up-to-date uptime. An unassociated radio fails with
// ErrNotConnected.
func (d *Driver) GetNetworkInfo() (NetworkInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return NetworkInfo{}, ErrNotInitialized
	}
	if !d.connected {
		return NetworkInfo{}, ErrNotConnected
	}

	d.network.SignalStrength = d.simulateRSSI()
	d.network.Uptime = d.clock.Now().Sub(d.uptimeSince)
	return d.network, nil
}
