package radio

import "time"

// Stats is the radio's cumulative telemetry since Open or the last reset.
type Stats struct {
	PacketsSent      uint32
	PacketsReceived  uint32
	PacketsLost      uint32
	RetriesAttempted uint32
	CRCErrors        uint32
	Timeouts         uint32

	// LastRSSI is the most recent signal measurement, in dBm.
	LastRSSI int

	// ChannelUtilization is the most recent channel busyness estimate,
	// 0-100 percent.
	ChannelUtilization int

	// TotalAirtime accumulates the estimated on-air time of every
	// transmission attempt, acknowledged or not.
	TotalAirtime time.Duration

	// PowerConsumption is the estimated charge drawn in the current power
	// state since the last activity, in microampere-hours.
	PowerConsumption uint32
}

// GetStatistics returns a snapshot of the counters with the volatile fields
// refreshed: a fresh RSSI measurement, a fresh channel-utilization estimate
// and the power draw of the current state since the last activity.
func (d *Driver) GetStatistics() (Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return Stats{}, ErrNotInitialized
	}

	d.stats.LastRSSI = d.simulateRSSI()
	d.stats.ChannelUtilization = d.simulateChannelUtilization()
	d.stats.PowerConsumption = EstimatePowerConsumption(d.state, d.clock.Now().Sub(d.lastActivity))
	d.metrics.SetRSSI(d.stats.LastRSSI)
	return d.stats, nil
}

// ResetStatistics zeroes all counters and seeds LastRSSI with a fresh
// measurement.
func (d *Driver) ResetStatistics() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	d.stats = Stats{LastRSSI: d.simulateRSSI()}
	return nil
}

// MeasureRSSI takes a signal-strength measurement on the configured channel.
// The radio must be powered.
func (d *Driver) MeasureRSSI() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	if d.state == PowerOff {
		return 0, ErrPowerFailure
	}

	rssi := d.simulateRSSI()
	d.stats.LastRSSI = rssi
	d.metrics.SetRSSI(rssi)
	return rssi, nil
}

// GetChannelUtilization estimates how busy the configured channel is, as a
// percentage. The radio must be powered.
func (d *Driver) GetChannelUtilization() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	if d.state == PowerOff {
		return 0, ErrPowerFailure
	}

	u := d.simulateChannelUtilization()
	d.stats.ChannelUtilization = u
	return u, nil
}
