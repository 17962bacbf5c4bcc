// Package radio simulates a half-duplex packet radio transceiver: power
// management, synchronous and asynchronous transmission, inbound packet
// buffering, network discovery and association, and telemetry. The model is
// stochastic but hardware-free, so link-layer application logic can be
// exercised without a radio module attached.
package radio

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/signalsfoundry/peripheral-simulator/internal/logging"
	"github.com/signalsfoundry/peripheral-simulator/timectrl"
)

const (
	// firmwareVersion is the fixed version string the simulated module
	// reports.
	firmwareVersion = "v2.1.4-sim"

	// lossPercent is the probability of a synchronous send going
	// unacknowledged.
	lossPercent = 5
	// arrivalPercent is the per-invocation probability of the arrival
	// simulation synthesizing an inbound packet.
	arrivalPercent = 5
	// joinFailPercent is the probability of a join attempt timing out.
	joinFailPercent = 10

	// receiveRetryThreshold is the receive timeout above which one extra
	// arrival attempt is made before giving up.
	receiveRetryThreshold = 100 * time.Millisecond
	receivePollInterval   = 50 * time.Millisecond
)

// MetricsRecorder receives driver telemetry. The observability package
// provides a Prometheus-backed implementation; the zero behaviour is no-op.
type MetricsRecorder interface {
	IncPacketSent()
	IncPacketLost()
	IncPacketReceived()
	ObserveAirtime(d time.Duration)
	SetRSSI(dbm int)
}

type nopMetrics struct{}

func (nopMetrics) IncPacketSent()              {}
func (nopMetrics) IncPacketLost()              {}
func (nopMetrics) IncPacketReceived()          {}
func (nopMetrics) ObserveAirtime(time.Duration) {}
func (nopMetrics) SetRSSI(int)                 {}

// Options carries the driver's ambient dependencies. The zero value works:
// real clock, silent logger, time-seeded randomness.
type Options struct {
	Clock   timectrl.Clock
	Logger  logging.Logger
	Metrics MetricsRecorder

	// Seed fixes the pseudo-random source for deterministic tests.
	// 0 derives a seed from the current time.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = timectrl.Real()
	}
	if o.Logger == nil {
		o.Logger = logging.Noop()
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// Driver simulates a single radio. One mutex guards the whole runtime state
// block; blocking operations release it only while sleeping.
type Driver struct {
	mu sync.Mutex

	clock   timectrl.Clock
	log     logging.Logger
	metrics MetricsRecorder
	rng     *rand.Rand

	initialized bool
	cfg         Config
	state       PowerState

	stats     Stats
	network   NetworkInfo
	connected bool

	nextTxID     uint16
	lastActivity time.Time
	uptimeSince  time.Time

	rx     packetQueue
	events chan Event
}

// Open validates the configuration and constructs a radio in the Idle power
// state with fresh statistics. A nil config fails with ErrInvalidParam, an
// invalid one with ErrConfig.
func Open(cfg *Config, opts Options) (*Driver, error) {
	if cfg == nil {
		return nil, ErrInvalidParam
	}
	if !cfg.validate() {
		return nil, ErrConfig
	}
	opts = opts.withDefaults()

	d := &Driver{
		clock:       opts.Clock,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		initialized: true,
		cfg:         *cfg,
		state:       PowerIdle,
		nextTxID:    1,
		events:      make(chan Event, eventBufferCapacity),
	}
	d.lastActivity = d.clock.Now()
	d.network = NetworkInfo{
		NetworkID:      cfg.NetworkID,
		SignalStrength: d.simulateRSSI(),
		HopCount:       HopUnreachable,
	}
	d.stats.LastRSSI = d.simulateRSSI()

	d.log.Info("radio opened",
		logging.Int("channel", int(cfg.Channel)),
		logging.String("data_rate", cfg.DataRate.String()),
		logging.String("modulation", cfg.Modulation.String()))
	return d, nil
}

// Close powers the radio off, severs any network association, closes the
// events channel and marks the driver unusable.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	d.initialized = false
	d.state = PowerOff
	d.connected = false
	close(d.events)
	d.log.Info("radio closed")
	return nil
}

// Configure replaces the active configuration. The radio must be Idle;
// reconfiguring a sleeping, receiving or transmitting radio fails with
// ErrConfig.
func (d *Driver) Configure(cfg *Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	if cfg == nil {
		return ErrInvalidParam
	}
	if !cfg.validate() {
		return ErrConfig
	}
	if d.state != PowerIdle {
		return ErrConfig
	}
	d.cfg = *cfg
	return nil
}

// Config returns a copy of the active configuration.
func (d *Driver) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SetPowerState applies a power transition. Waking directly into Rx or Tx
// from Off is rejected with ErrConfig; powering Off severs any network
// association. All other transitions are accepted unconditionally.
func (d *Driver) SetPowerState(state PowerState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	if state < PowerOff || state > PowerTx {
		return ErrInvalidParam
	}

	switch state {
	case PowerOff:
		if d.connected {
			d.connected = false
			d.publishEvent(Event{Type: EventNetworkLeft, Time: d.clock.Now()})
		}
	case PowerRx, PowerTx:
		if d.state == PowerOff {
			return ErrConfig
		}
	}

	d.log.Debug("power state change",
		logging.String("from", d.state.String()),
		logging.String("to", state.String()))
	d.state = state
	d.lastActivity = d.clock.Now()
	return nil
}

// GetPowerState reports the current power state.
func (d *Driver) GetPowerState() (PowerState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return PowerOff, ErrNotInitialized
	}
	return d.state, nil
}

// SendPacket transmits synchronously. The radio passes through Tx and
// returns to Idle whatever the outcome; airtime is accumulated for every
// attempt. A fixed fraction of transmissions goes unacknowledged and fails
// with ErrNoAck.
func (d *Driver) SendPacket(pkt *Packet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	if pkt == nil {
		return ErrInvalidParam
	}
	if len(pkt.Payload) > MaxPayloadSize {
		return ErrPacketTooLarge
	}
	if d.state == PowerOff {
		return ErrPowerFailure
	}

	d.state = PowerTx
	d.lastActivity = d.clock.Now()

	airtime := CalculateAirtime(len(pkt.Payload), d.cfg.DataRate, d.cfg.Modulation)
	d.stats.PacketsSent++
	d.stats.TotalAirtime += airtime
	d.metrics.IncPacketSent()
	d.metrics.ObserveAirtime(airtime)

	defer func() { d.state = PowerIdle }()

	if d.rng.Intn(100) < lossPercent {
		d.stats.PacketsLost++
		d.metrics.IncPacketLost()
		d.publishEvent(Event{Type: EventTxFailed, Time: d.lastActivity})
		d.log.Debug("send unacknowledged", logging.Int("payload", len(pkt.Payload)))
		return ErrNoAck
	}
	return nil
}

// SendPacketAsync queues a packet and returns a transaction ID without a
// state transition. The simulation completes transmissions immediately and
// optimistically counts the packet as sent; poll GetTxStatus for the
// (always successful) outcome.
func (d *Driver) SendPacketAsync(pkt *Packet) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	if pkt == nil {
		return 0, ErrInvalidParam
	}
	if len(pkt.Payload) > MaxPayloadSize {
		return 0, ErrPacketTooLarge
	}
	if d.state == PowerOff {
		return 0, ErrPowerFailure
	}

	id := d.nextTxID
	d.nextTxID++
	d.stats.PacketsSent++
	d.metrics.IncPacketSent()
	return id, nil
}

// GetTxStatus reports the outcome of an asynchronous transmission. The
// simulation keeps no pending-transaction table: every transmission is
// reported as complete and successful.
func (d *Driver) GetTxStatus(txID uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	_ = txID
	return nil
}

// ReceivePacket dequeues the oldest buffered inbound packet, after giving
// the arrival simulation one chance to deliver. With an empty buffer a zero
// timeout fails immediately with ErrBufferEmpty; a timeout above 100ms earns
// one bounded sleep and a second arrival attempt before ErrTimeout.
func (d *Driver) ReceivePacket(ctx context.Context, timeout time.Duration) (*Packet, error) {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if d.state == PowerOff {
		d.mu.Unlock()
		return nil, ErrPowerFailure
	}

	if pkt, ok := d.tryReceiveLocked(); ok {
		d.mu.Unlock()
		return pkt, nil
	}
	if timeout == 0 {
		d.mu.Unlock()
		return nil, ErrBufferEmpty
	}

	if timeout > receiveRetryThreshold {
		d.mu.Unlock()
		if err := d.clock.Sleep(ctx, receivePollInterval); err != nil {
			return nil, err
		}
		d.mu.Lock()
		if !d.initialized {
			d.mu.Unlock()
			return nil, ErrNotInitialized
		}
		if pkt, ok := d.tryReceiveLocked(); ok {
			d.mu.Unlock()
			return pkt, nil
		}
	}

	d.stats.Timeouts++
	d.mu.Unlock()
	return nil, ErrTimeout
}

// tryReceiveLocked runs one arrival-simulation step and dequeues the oldest
// packet if any is buffered. Callers hold d.mu.
func (d *Driver) tryReceiveLocked() (*Packet, bool) {
	d.simulateArrivalLocked()
	pkt, ok := d.rx.pop()
	if !ok {
		return nil, false
	}
	return &pkt, true
}

// simulateArrivalLocked occasionally synthesizes an inbound packet addressed
// to this radio. It only acts while the radio is Idle or Rx and the buffer
// has free capacity; a full buffer drops the arrival rather than overwriting
// queued packets. Callers hold d.mu.
func (d *Driver) simulateArrivalLocked() {
	if d.state != PowerIdle && d.state != PowerRx {
		return
	}
	if d.rng.Intn(100) >= arrivalPercent {
		return
	}
	if d.rx.full() {
		return
	}

	pkt := Packet{
		Destination: d.cfg.DeviceAddress,
		ID:          uint16(d.rng.Intn(1 << 16)),
		Priority:    PriorityNormal,
		Timestamp:   d.clock.Now(),
	}
	for i := range pkt.Source {
		pkt.Source[i] = byte(d.rng.Intn(256))
	}
	pkt.Payload = make([]byte, 1+d.rng.Intn(100))
	for i := range pkt.Payload {
		pkt.Payload[i] = byte(d.rng.Intn(256))
	}

	d.rx.push(pkt)
	d.stats.PacketsReceived++
	d.metrics.IncPacketReceived()

	cp := pkt
	d.publishEvent(Event{Type: EventPacketReceived, Packet: &cp, Time: pkt.Timestamp})
}

// simulateRSSI draws a signal strength around -70 dBm, clamped to the valid
// range. Callers hold d.mu.
func (d *Driver) simulateRSSI() int {
	rssi := -70 + d.rng.Intn(20) - 10
	if rssi < RSSIMin {
		rssi = RSSIMin
	}
	if rssi > RSSIMax {
		rssi = RSSIMax
	}
	return rssi
}

// simulateChannelUtilization draws a utilization figure between 10 and 40
// percent. Callers hold d.mu.
func (d *Driver) simulateChannelUtilization() int {
	return 10 + d.rng.Intn(30)
}

// SelfTest runs the module's built-in test suite. Every bit of the result
// mask is a test; the simulation always reports all tests passing.
func (d *Driver) SelfTest() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	return 0xFFFFFFFF, nil
}

// FirmwareVersion reports the simulated module's firmware version string.
func (d *Driver) FirmwareVersion() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return "", ErrNotInitialized
	}
	return firmwareVersion, nil
}
