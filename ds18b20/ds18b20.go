// Package ds18b20 simulates a bus of 1-Wire digital temperature sensors.
// It reproduces the observable behaviour of the real part (discovery,
// resolution-dependent conversion timing, CRC-protected ROM codes, alarm
// thresholds) without any hardware access, so application logic can be
// developed and tested against it.
package ds18b20

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/signalsfoundry/peripheral-simulator/internal/logging"
	"github.com/signalsfoundry/peripheral-simulator/timectrl"
)

const (
	blockingReadTimeout    = time.Second
	conversionPollInterval = 10 * time.Millisecond
)

// MetricsRecorder receives driver telemetry. The observability package
// provides a Prometheus-backed implementation; the zero behaviour is no-op.
type MetricsRecorder interface {
	IncConversion()
	ObserveTemperature(celsius float64)
}

type nopMetrics struct{}

func (nopMetrics) IncConversion()             {}
func (nopMetrics) ObserveTemperature(float64) {}

// DriverConfig carries the bus identity and the driver's ambient
// dependencies. The zero value works: real clock, silent logger, time-seeded
// randomness.
type DriverConfig struct {
	// Pin is the GPIO pin the simulated 1-Wire bus hangs off. Informational
	// only; it appears in logs.
	Pin uint8

	Clock   timectrl.Clock
	Logger  logging.Logger
	Metrics MetricsRecorder

	// Seed fixes the pseudo-random source for deterministic tests.
	// 0 derives a seed from the current time.
	Seed int64
}

func (c DriverConfig) withDefaults() DriverConfig {
	if c.Clock == nil {
		c.Clock = timectrl.Real()
	}
	if c.Logger == nil {
		c.Logger = logging.Noop()
	}
	if c.Metrics == nil {
		c.Metrics = nopMetrics{}
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// simulatedDevice is the driver-internal record backing one handle. Never
// exposed to callers.
type simulatedDevice struct {
	handle          Device
	conversionStart time.Time
	converting      bool

	baseTemperature float64
	drift           float64
}

// Driver simulates one 1-Wire bus with up to MaxDevices sensors. All state
// is guarded by a single mutex; the two simulators in this module never need
// cross-locking.
type Driver struct {
	mu sync.Mutex

	pin     uint8
	clock   timectrl.Clock
	log     logging.Logger
	metrics MetricsRecorder
	rng     *rand.Rand

	initialized bool
	devices     map[ROMCode]*simulatedDevice
	order       []ROMCode
}

// Open constructs a ready-to-use driver. It replaces the init/deinit
// singleton lifecycle of a typical vendor driver: each Driver owns its state
// and Close tears it down.
func Open(cfg DriverConfig) *Driver {
	cfg = cfg.withDefaults()
	d := &Driver{
		pin:         cfg.Pin,
		clock:       cfg.Clock,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		initialized: true,
		devices:     make(map[ROMCode]*simulatedDevice),
	}
	d.log.Info("ds18b20 driver opened", logging.Int("pin", int(cfg.Pin)))
	return d
}

// Close clears all driver state. Further operations fail with
// ErrNotInitialized; a new bus requires a new Open.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	d.initialized = false
	d.devices = nil
	d.order = nil
	d.log.Info("ds18b20 driver closed")
	return nil
}

// Scan fabricates between one and three devices (clamped to maxDevices and
// the MaxDevices cap), each with a CRC-consistent ROM code, 12-bit
// resolution, external power and default alarm thresholds. The result fully
// replaces any previous scan.
func (d *Driver) Scan(maxDevices int) ([]Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil, ErrNotInitialized
	}
	if maxDevices <= 0 {
		return nil, ErrInvalidParam
	}

	n := 1 + d.rng.Intn(3)
	if n > maxDevices {
		n = maxDevices
	}
	if n > MaxDevices {
		n = MaxDevices
	}

	d.devices = make(map[ROMCode]*simulatedDevice, n)
	d.order = d.order[:0]

	found := make([]Device, 0, n)
	for i := 0; i < n; i++ {
		dev := Device{
			ROMCode:     d.generateROMCode(),
			Resolution:  Resolution12Bit,
			PowerMode:   PowerExternal,
			AlarmHigh:   DefaultAlarmHigh,
			AlarmLow:    DefaultAlarmLow,
			Initialized: true,
		}
		d.devices[dev.ROMCode] = &simulatedDevice{
			handle:          dev,
			baseTemperature: 20.0 + d.rng.Float64()*20.0, // [20,40) degC
		}
		d.order = append(d.order, dev.ROMCode)
		found = append(found, dev)
	}

	d.log.Debug("bus scan complete", logging.Int("found", len(found)))
	return found, nil
}

// Devices returns the current handles in discovery order, reflecting any
// configuration applied since the scan. An empty bus returns an empty slice.
func (d *Driver) Devices() ([]Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil, ErrNotInitialized
	}

	out := make([]Device, 0, len(d.order))
	for _, rom := range d.order {
		if rec, ok := d.devices[rom]; ok {
			out = append(out, rec.handle)
		}
	}
	return out, nil
}

// Configure updates the device's resolution and alarm thresholds. Thresholds
// must lie in [-55,125] degC with AlarmLow strictly below AlarmHigh. An
// unmatched ROM code fails with ErrDeviceNotFound; nothing is mutated on any
// failure.
func (d *Driver) Configure(dev *Device, res Resolution, thAlarm, tlAlarm int8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	if dev == nil || !dev.Initialized {
		return ErrInvalidParam
	}
	if thAlarm < AlarmThresholdMin || thAlarm > AlarmThresholdMax ||
		tlAlarm < AlarmThresholdMin || tlAlarm > AlarmThresholdMax {
		return ErrInvalidParam
	}
	if tlAlarm >= thAlarm {
		return ErrInvalidParam
	}

	rec, ok := d.devices[dev.ROMCode]
	if !ok {
		return ErrDeviceNotFound
	}

	dev.Resolution = res
	dev.AlarmHigh = thAlarm
	dev.AlarmLow = tlAlarm
	rec.handle = *dev

	d.log.Debug("device configured",
		logging.String("resolution", res.String()),
		logging.Int("th", int(thAlarm)),
		logging.Int("tl", int(tlAlarm)))
	return nil
}

// StartConversion begins a timed temperature conversion on the device. The
// conversion completes after the resolution-dependent interval has elapsed.
func (d *Driver) StartConversion(dev *Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	if dev == nil || !dev.Initialized {
		return ErrInvalidParam
	}

	rec, ok := d.devices[dev.ROMCode]
	if !ok {
		return ErrDeviceNotFound
	}
	rec.converting = true
	rec.conversionStart = d.clock.Now()
	d.metrics.IncConversion()
	return nil
}

// IsConversionComplete reports whether the device's conversion has finished.
// With no conversion in progress it reports true immediately. Completion
// latches: once the resolution's conversion time has elapsed the in-progress
// flag is cleared.
func (d *Driver) IsConversionComplete(dev *Device) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return false, ErrNotInitialized
	}
	if dev == nil || !dev.Initialized {
		return false, ErrInvalidParam
	}

	rec, ok := d.devices[dev.ROMCode]
	if !ok {
		return false, ErrDeviceNotFound
	}
	if !rec.converting {
		return true, nil
	}

	elapsed := d.clock.Now().Sub(rec.conversionStart)
	if elapsed >= dev.Resolution.ConversionTime() {
		rec.converting = false
		return true, nil
	}
	return false, nil
}

// ReadTemperature synthesizes a fresh reading for the device: base
// temperature plus a bounded slow drift plus per-read noise, quantized to
// the configured resolution. The Celsius value is reconstructed from the
// quantized raw encoding, reproducing the physical part's finite precision.
func (d *Driver) ReadTemperature(dev *Device) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return Reading{}, ErrNotInitialized
	}
	if dev == nil || !dev.Initialized {
		return Reading{}, ErrInvalidParam
	}

	rec, ok := d.devices[dev.ROMCode]
	if !ok {
		return Reading{}, ErrDeviceNotFound
	}

	// Drift is a persisted random walk clamped to +/-2 degC; noise is an
	// independent +/-0.05 degC perturbation that is not carried forward.
	rec.drift += (d.rng.Float64() - 0.5) * 0.01
	if rec.drift > 2.0 {
		rec.drift = 2.0
	}
	if rec.drift < -2.0 {
		rec.drift = -2.0
	}
	noise := (d.rng.Float64() - 0.5) * 0.1

	tempC := rec.baseTemperature + rec.drift + noise
	raw := celsiusToRaw(tempC, dev.Resolution)

	celsius := RawToCelsius(raw, dev.Resolution)
	reading := Reading{
		Celsius:    celsius,
		Fahrenheit: CelsiusToFahrenheit(celsius),
		Raw:        raw,
		Valid:      true,
	}
	d.metrics.ObserveTemperature(reading.Celsius)
	return reading, nil
}

// ReadTemperatureBlocking composes StartConversion, a bounded poll loop and
// ReadTemperature. It fails with ErrTimeout if the conversion does not
// complete within one second, and respects ctx between polls.
func (d *Driver) ReadTemperatureBlocking(ctx context.Context, dev *Device) (Reading, error) {
	if err := d.StartConversion(dev); err != nil {
		return Reading{}, err
	}

	deadline := d.clock.Now().Add(blockingReadTimeout)
	for {
		done, err := d.IsConversionComplete(dev)
		if err != nil {
			return Reading{}, err
		}
		if done {
			break
		}
		if !d.clock.Now().Before(deadline) {
			return Reading{}, ErrTimeout
		}
		if err := d.clock.Sleep(ctx, conversionPollInterval); err != nil {
			return Reading{}, err
		}
	}

	return d.ReadTemperature(dev)
}

// GetPowerMode reports the device's power mode.
func (d *Driver) GetPowerMode(dev *Device) (PowerMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	if dev == nil || !dev.Initialized {
		return 0, ErrInvalidParam
	}
	return dev.PowerMode, nil
}

// generateROMCode builds a fresh ROM code: family byte, six random serial
// bytes, CRC-8 over the first seven as the eighth. Callers hold d.mu.
func (d *Driver) generateROMCode() ROMCode {
	var rom ROMCode
	rom[0] = FamilyCode
	for i := 1; i < 7; i++ {
		rom[i] = byte(d.rng.Intn(256))
	}
	rom[7] = CRC8(rom[:7])
	return rom
}
