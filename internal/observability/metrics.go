// Package observability wires the simulators' telemetry into Prometheus and
// OpenTelemetry. The drivers stay decoupled from both: they talk to small
// recorder interfaces, and the Collector here is the concrete implementation.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics for both simulated peripherals.
// It satisfies the sensor driver's and the radio driver's MetricsRecorder
// interfaces, so a single Collector can be handed to both.
type Collector struct {
	gatherer prometheus.Gatherer

	SensorConversions prometheus.Counter
	SensorTemperature prometheus.Histogram

	RadioPacketsSent     prometheus.Counter
	RadioPacketsLost     prometheus.Counter
	RadioPacketsReceived prometheus.Counter
	RadioAirtime         prometheus.Histogram
	RadioRSSI            prometheus.Gauge
}

// NewCollector registers the peripheral metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	conversions, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_conversions_total",
		Help: "Total number of temperature conversions started.",
	}), "sensor_conversions_total")
	if err != nil {
		return nil, err
	}

	temperature, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sensor_temperature_celsius",
		Help:    "Distribution of temperature readings in degrees Celsius.",
		Buckets: prometheus.LinearBuckets(-60, 20, 10),
	}), "sensor_temperature_celsius")
	if err != nil {
		return nil, err
	}

	sent, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radio_packets_sent_total",
		Help: "Total number of transmission attempts.",
	}), "radio_packets_sent_total")
	if err != nil {
		return nil, err
	}
	lost, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radio_packets_lost_total",
		Help: "Total number of unacknowledged transmissions.",
	}), "radio_packets_lost_total")
	if err != nil {
		return nil, err
	}
	received, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radio_packets_received_total",
		Help: "Total number of inbound packets buffered.",
	}), "radio_packets_received_total")
	if err != nil {
		return nil, err
	}

	airtime, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radio_airtime_seconds",
		Help:    "Estimated on-air time per transmission, in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "radio_airtime_seconds")
	if err != nil {
		return nil, err
	}

	rssi, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "radio_rssi_dbm",
		Help: "Most recent signal strength measurement in dBm.",
	}), "radio_rssi_dbm")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:             gatherer,
		SensorConversions:    conversions,
		SensorTemperature:    temperature,
		RadioPacketsSent:     sent,
		RadioPacketsLost:     lost,
		RadioPacketsReceived: received,
		RadioAirtime:         airtime,
		RadioRSSI:            rssi,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncConversion satisfies the sensor driver's MetricsRecorder.
func (c *Collector) IncConversion() {
	if c == nil || c.SensorConversions == nil {
		return
	}
	c.SensorConversions.Inc()
}

// ObserveTemperature satisfies the sensor driver's MetricsRecorder.
func (c *Collector) ObserveTemperature(celsius float64) {
	if c == nil || c.SensorTemperature == nil {
		return
	}
	c.SensorTemperature.Observe(celsius)
}

// IncPacketSent satisfies the radio driver's MetricsRecorder.
func (c *Collector) IncPacketSent() {
	if c == nil || c.RadioPacketsSent == nil {
		return
	}
	c.RadioPacketsSent.Inc()
}

// IncPacketLost satisfies the radio driver's MetricsRecorder.
func (c *Collector) IncPacketLost() {
	if c == nil || c.RadioPacketsLost == nil {
		return
	}
	c.RadioPacketsLost.Inc()
}

// IncPacketReceived satisfies the radio driver's MetricsRecorder.
func (c *Collector) IncPacketReceived() {
	if c == nil || c.RadioPacketsReceived == nil {
		return
	}
	c.RadioPacketsReceived.Inc()
}

// ObserveAirtime satisfies the radio driver's MetricsRecorder.
func (c *Collector) ObserveAirtime(d time.Duration) {
	if c == nil || c.RadioAirtime == nil {
		return
	}
	c.RadioAirtime.Observe(d.Seconds())
}

// SetRSSI satisfies the radio driver's MetricsRecorder.
func (c *Collector) SetRSSI(dbm int) {
	if c == nil || c.RadioRSSI == nil {
		return
	}
	c.RadioRSSI.Set(float64(dbm))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, histogram prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(histogram); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return histogram, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
