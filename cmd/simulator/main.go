// Command simulator runs the full measure-and-transmit loop against the
// simulated peripherals: scan the 1-Wire bus, join a radio network, then
// periodically read every sensor, pack the readings into a Cayenne LPP
// payload and uplink it.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/peripheral-simulator/ds18b20"
	"github.com/signalsfoundry/peripheral-simulator/internal/logging"
	"github.com/signalsfoundry/peripheral-simulator/internal/observability"
	"github.com/signalsfoundry/peripheral-simulator/radio"
	"github.com/signalsfoundry/peripheral-simulator/telemetry"
	"github.com/signalsfoundry/peripheral-simulator/timectrl"
)

// gatewayAddress is where uplinks are sent. The simulated network has no
// real addressing plane, so any fixed destination works.
var gatewayAddress = radio.Address{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}

// demoNetworkKey is the well-known key of the demo network.
var demoNetworkKey = []byte{
	0x2B, 0x7E, 0x15, 0x16, 0x28, 0xAE, 0xD2, 0xA6,
	0xAB, 0xF7, 0x15, 0x88, 0x09, 0xCF, 0x4F, 0x3C,
}

type options struct {
	cycles     int
	interval   time.Duration
	resolution ds18b20.Resolution
	channel    uint8
	networkID  uint16
	seed       int64
}

func main() {
	cycles := flag.Int("cycles", 10, "number of measure-and-transmit cycles")
	interval := flag.Duration("interval", 2*time.Second, "delay between cycles")
	bits := flag.Int("resolution", 12, "sensor resolution in bits (9-12)")
	channel := flag.Int("channel", 42, "RF channel (0-124)")
	networkID := flag.Int("network", 1001, "network ID to join")
	seed := flag.Int64("seed", 0, "PRNG seed for both drivers (0 = time-based)")
	metricsAddr := flag.String("metrics-addr", "", "expose Prometheus metrics on this address (empty = disabled)")
	flag.Parse()

	log := logging.NewFromEnv()

	res, ok := resolutionFromBits(*bits)
	if !ok {
		log.Error("invalid resolution", logging.Int("bits", *bits))
		os.Exit(2)
	}
	if *channel < 0 || *channel >= radio.MaxChannels {
		log.Error("invalid channel", logging.Int("channel", *channel))
		os.Exit(2)
	}

	ctx := context.Background()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error("tracing init failed", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error("metrics init failed", logging.Err(err))
		os.Exit(1)
	}
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error("metrics server failed", logging.Err(err))
			}
		}()
		log.Info("metrics exposed", logging.String("addr", *metricsAddr))
	}

	opts := options{
		cycles:     *cycles,
		interval:   *interval,
		resolution: res,
		channel:    uint8(*channel),
		networkID:  uint16(*networkID),
		seed:       *seed,
	}
	if err := run(ctx, opts, timectrl.Real(), log, collector); err != nil {
		log.Error("simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

func resolutionFromBits(bits int) (ds18b20.Resolution, bool) {
	switch bits {
	case 9:
		return ds18b20.Resolution9Bit, true
	case 10:
		return ds18b20.Resolution10Bit, true
	case 11:
		return ds18b20.Resolution11Bit, true
	case 12:
		return ds18b20.Resolution12Bit, true
	default:
		return 0, false
	}
}

// run drives the whole demo against the given clock so tests can execute it
// without real waiting.
func run(ctx context.Context, opts options, clock timectrl.Clock, log logging.Logger, collector *observability.Collector) error {
	tracer := otel.Tracer("peripheral-simulator")

	sensor := ds18b20.Open(ds18b20.DriverConfig{
		Pin:     4,
		Clock:   clock,
		Logger:  log.With(logging.String("driver", "ds18b20")),
		Metrics: collector,
		Seed:    opts.seed,
	})
	defer sensor.Close()

	devices, err := sensor.Scan(ds18b20.MaxDevices)
	if err != nil {
		return errors.Wrap(err, "scan 1-wire bus")
	}
	log.Info("sensors discovered", logging.Int("count", len(devices)))

	for i := range devices {
		if err := sensor.Configure(&devices[i], opts.resolution, ds18b20.DefaultAlarmHigh, ds18b20.DefaultAlarmLow); err != nil {
			return errors.Wrapf(err, "configure sensor %d", i)
		}
	}

	rcfg := &radio.Config{
		FrequencyHz:   868_000_000,
		Channel:       opts.channel,
		TxPower:       radio.TxPowerMedium,
		DataRate:      radio.DataRate10K,
		Modulation:    radio.ModulationGFSK,
		Security:      radio.SecurityAES128,
		DeviceAddress: radio.Address{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80},
		NetworkID:     opts.networkID,
		AutoAck:       true,
		MaxRetries:    3,
		TxTimeout:     radio.DefaultTxTimeout,
	}
	link, err := radio.Open(rcfg, radio.Options{
		Clock:   clock,
		Logger:  log.With(logging.String("driver", "radio")),
		Metrics: collector,
		Seed:    opts.seed,
	})
	if err != nil {
		return errors.Wrap(err, "open radio")
	}
	defer link.Close()

	version, err := link.FirmwareVersion()
	if err != nil {
		return errors.Wrap(err, "query firmware version")
	}
	log.Info("radio ready", logging.String("firmware", version))

	if err := joinWithRetry(ctx, link, opts.networkID, clock); err != nil {
		return errors.Wrap(err, "join network")
	}

	for cycle := 0; cycle < opts.cycles; cycle++ {
		if err := measureAndTransmit(ctx, tracer, sensor, devices, link, clock, log, cycle); err != nil {
			return err
		}
		drainEvents(link, log)
		if cycle < opts.cycles-1 {
			if err := clock.Sleep(ctx, opts.interval); err != nil {
				return err
			}
		}
	}

	stats, err := link.GetStatistics()
	if err != nil {
		return errors.Wrap(err, "read link statistics")
	}
	log.Info("link statistics",
		logging.Int("sent", int(stats.PacketsSent)),
		logging.Int("lost", int(stats.PacketsLost)),
		logging.Int("rssi_dbm", stats.LastRSSI),
		logging.Int("channel_utilization_pct", stats.ChannelUtilization),
		logging.String("total_airtime", stats.TotalAirtime.String()),
	)
	return nil
}

// joinWithRetry keeps attempting the join through simulated timeouts, backing
// off briefly between attempts.
func joinWithRetry(ctx context.Context, link *radio.Driver, networkID uint16, clock timectrl.Clock) error {
	const attempts = 10
	var err error
	for i := 0; i < attempts; i++ {
		err = link.JoinNetwork(networkID, demoNetworkKey, time.Second)
		if err == nil {
			return nil
		}
		if err != radio.ErrTimeout {
			return err
		}
		if sleepErr := clock.Sleep(ctx, 500*time.Millisecond); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

// measureAndTransmit reads every sensor once, packs the readings into one
// LPP payload and uplinks it. Unacknowledged sends are logged, not fatal;
// the next cycle retries with fresh readings anyway.
func measureAndTransmit(
	ctx context.Context,
	tracer trace.Tracer,
	sensor *ds18b20.Driver,
	devices []ds18b20.Device,
	link *radio.Driver,
	clock timectrl.Clock,
	log logging.Logger,
	cycle int,
) error {
	ctx, span := tracer.Start(ctx, "measure-and-transmit",
		trace.WithAttributes(attribute.Int("cycle", cycle)))
	defer span.End()

	readings := make([]ds18b20.Reading, 0, len(devices))
	for i := range devices {
		reading, err := sensor.ReadTemperatureBlocking(ctx, &devices[i])
		if err != nil {
			return errors.Wrapf(err, "read sensor %d", i)
		}
		readings = append(readings, reading)
		log.Info("temperature",
			logging.Int("sensor", i),
			logging.Float64("celsius", reading.Celsius),
			logging.Float64("fahrenheit", reading.Fahrenheit),
		)
	}

	payload, err := telemetry.Encode(readings)
	if err != nil {
		return errors.Wrap(err, "encode telemetry")
	}

	pkt := &radio.Packet{
		Destination: gatewayAddress,
		Source:      link.Config().DeviceAddress,
		Priority:    radio.PriorityNormal,
		Payload:     payload,
		Timestamp:   clock.Now(),
		RequireACK:  true,
	}
	switch err := link.SendPacket(pkt); err {
	case nil:
		log.Info("uplink sent", logging.Int("bytes", len(payload)))
	case radio.ErrNoAck:
		log.Warn("uplink lost", logging.Int("bytes", len(payload)))
	default:
		return errors.Wrap(err, "send uplink")
	}
	return nil
}

// drainEvents empties the radio's notification channel, logging anything of
// interest.
func drainEvents(link *radio.Driver, log logging.Logger) {
	for {
		select {
		case ev, ok := <-link.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case radio.EventTxFailed:
				log.Warn("uplink unacknowledged")
			case radio.EventPacketReceived:
				if ev.Packet != nil {
					log.Info("downlink buffered", logging.Int("bytes", len(ev.Packet.Payload)))
				}
			default:
				log.Debug("radio event", logging.String("type", ev.Type.String()))
			}
		default:
			return
		}
	}
}
