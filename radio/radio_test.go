package radio

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/peripheral-simulator/timectrl"
)

func testConfig() *Config {
	return &Config{
		FrequencyHz:   868_000_000,
		Channel:       42,
		TxPower:       TxPowerMedium,
		DataRate:      DataRate10K,
		Modulation:    ModulationGFSK,
		Security:      SecurityAES128,
		DeviceAddress: Address{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01, 0x02, 0x03},
		NetworkID:     1000,
		AutoAck:       true,
		MaxRetries:    3,
		TxTimeout:     DefaultTxTimeout,
	}
}

func newTestRadio(t *testing.T, seed int64) (*Driver, *timectrl.MockClock) {
	t.Helper()
	clock := timectrl.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	d, err := Open(testConfig(), Options{Clock: clock, Seed: seed})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, clock
}

// joinTestRadio associates the radio with a network, retrying through the
// simulated join failures.
func joinTestRadio(t *testing.T, d *Driver) {
	t.Helper()
	key := make([]byte, NetworkKeySize)
	for attempt := 0; attempt < 100; attempt++ {
		err := d.JoinNetwork(1001, key, time.Second)
		if err == nil {
			return
		}
		if err != ErrTimeout {
			t.Fatalf("JoinNetwork: %v", err)
		}
	}
	t.Fatal("join never succeeded in 100 attempts")
}

func TestOpenValidation(t *testing.T) {
	if _, err := Open(nil, Options{}); err != ErrInvalidParam {
		t.Fatalf("Open(nil) = %v, want ErrInvalidParam", err)
	}

	bad := testConfig()
	bad.Channel = MaxChannels
	if _, err := Open(bad, Options{}); err != ErrConfig {
		t.Fatalf("Open with bad channel = %v, want ErrConfig", err)
	}

	bad = testConfig()
	bad.MaxRetries = MaxRetries + 1
	if _, err := Open(bad, Options{}); err != ErrConfig {
		t.Fatalf("Open with bad retries = %v, want ErrConfig", err)
	}

	bad = testConfig()
	bad.TxTimeout = 0
	if _, err := Open(bad, Options{}); err != ErrConfig {
		t.Fatalf("Open with zero timeout = %v, want ErrConfig", err)
	}
}

func TestOpenInitialState(t *testing.T) {
	d, _ := newTestRadio(t, 1)

	state, err := d.GetPowerState()
	if err != nil {
		t.Fatalf("GetPowerState: %v", err)
	}
	if state != PowerIdle {
		t.Fatalf("initial state = %v, want idle", state)
	}

	stats, err := d.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.PacketsSent != 0 || stats.PacketsReceived != 0 || stats.PacketsLost != 0 {
		t.Fatalf("fresh radio has nonzero counters: %+v", stats)
	}

	// Not associated until an explicit join.
	if _, err := d.GetNetworkInfo(); err != ErrNotConnected {
		t.Fatalf("GetNetworkInfo before join = %v, want ErrNotConnected", err)
	}
}

func TestConfigureRequiresIdle(t *testing.T) {
	d, _ := newTestRadio(t, 1)

	if err := d.SetPowerState(PowerRx); err != nil {
		t.Fatalf("SetPowerState(rx): %v", err)
	}
	if err := d.Configure(testConfig()); err != ErrConfig {
		t.Fatalf("Configure while rx = %v, want ErrConfig", err)
	}

	if err := d.SetPowerState(PowerIdle); err != nil {
		t.Fatalf("SetPowerState(idle): %v", err)
	}
	cfg := testConfig()
	cfg.Channel = 7
	if err := d.Configure(cfg); err != nil {
		t.Fatalf("Configure while idle: %v", err)
	}
	if got := d.Config(); got.Channel != 7 {
		t.Fatalf("Channel = %d after reconfigure, want 7", got.Channel)
	}

	if err := d.Configure(nil); err != ErrInvalidParam {
		t.Fatalf("Configure(nil) = %v, want ErrInvalidParam", err)
	}
	bad := testConfig()
	bad.Channel = MaxChannels
	if err := d.Configure(bad); err != ErrConfig {
		t.Fatalf("Configure with bad channel = %v, want ErrConfig", err)
	}
}

func TestPowerStateTransitions(t *testing.T) {
	d, _ := newTestRadio(t, 1)

	// Any powered state can reach Off, and Off can wake into Sleep,
	// Standby or Idle, but not directly into Rx or Tx.
	if err := d.SetPowerState(PowerOff); err != nil {
		t.Fatalf("SetPowerState(off): %v", err)
	}
	if err := d.SetPowerState(PowerRx); err != ErrConfig {
		t.Fatalf("off->rx = %v, want ErrConfig", err)
	}
	if err := d.SetPowerState(PowerTx); err != ErrConfig {
		t.Fatalf("off->tx = %v, want ErrConfig", err)
	}
	if err := d.SetPowerState(PowerIdle); err != nil {
		t.Fatalf("off->idle: %v", err)
	}
	if err := d.SetPowerState(PowerRx); err != nil {
		t.Fatalf("idle->rx: %v", err)
	}

	if err := d.SetPowerState(PowerState(99)); err != ErrInvalidParam {
		t.Fatalf("invalid state = %v, want ErrInvalidParam", err)
	}
}

func TestPowerOffSeversNetwork(t *testing.T) {
	d, _ := newTestRadio(t, 3)
	joinTestRadio(t, d)

	if err := d.SetPowerState(PowerOff); err != nil {
		t.Fatalf("SetPowerState(off): %v", err)
	}
	if _, err := d.GetNetworkInfo(); err != ErrNotConnected {
		t.Fatalf("GetNetworkInfo after power off = %v, want ErrNotConnected", err)
	}
}

func TestSendPacketTooLargeLeavesStatsUntouched(t *testing.T) {
	d, _ := newTestRadio(t, 1)

	pkt := &Packet{Payload: make([]byte, MaxPayloadSize+1)}
	if err := d.SendPacket(pkt); err != ErrPacketTooLarge {
		t.Fatalf("SendPacket oversized = %v, want ErrPacketTooLarge", err)
	}

	stats, err := d.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.PacketsSent != 0 || stats.PacketsLost != 0 || stats.TotalAirtime != 0 {
		t.Fatalf("rejected send mutated stats: %+v", stats)
	}

	// At exactly the limit the send is attempted.
	pkt = &Packet{Payload: make([]byte, MaxPayloadSize)}
	if err := d.SendPacket(pkt); err != nil && err != ErrNoAck {
		t.Fatalf("SendPacket at limit = %v", err)
	}
}

func TestSendPacketWhilePoweredOff(t *testing.T) {
	d, _ := newTestRadio(t, 1)
	if err := d.SetPowerState(PowerOff); err != nil {
		t.Fatalf("SetPowerState(off): %v", err)
	}
	if err := d.SendPacket(&Packet{Payload: []byte{1}}); err != ErrPowerFailure {
		t.Fatalf("SendPacket while off = %v, want ErrPowerFailure", err)
	}
	if _, err := d.SendPacketAsync(&Packet{Payload: []byte{1}}); err != ErrPowerFailure {
		t.Fatalf("SendPacketAsync while off = %v, want ErrPowerFailure", err)
	}
	if _, err := d.ReceivePacket(context.Background(), 0); err != ErrPowerFailure {
		t.Fatalf("ReceivePacket while off = %v, want ErrPowerFailure", err)
	}
}

func TestSendPacketLossAccounting(t *testing.T) {
	d, _ := newTestRadio(t, 17)

	const sends = 200
	losses := 0
	for i := 0; i < sends; i++ {
		err := d.SendPacket(&Packet{Payload: []byte("hello")})
		switch err {
		case nil:
		case ErrNoAck:
			losses++
		default:
			t.Fatalf("SendPacket %d: %v", i, err)
		}
	}
	if losses == 0 {
		t.Fatal("no losses in 200 sends; loss simulation inactive")
	}

	stats, err := d.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.PacketsSent != sends {
		t.Fatalf("PacketsSent = %d, want %d", stats.PacketsSent, sends)
	}
	if stats.PacketsLost != uint32(losses) {
		t.Fatalf("PacketsLost = %d, want %d", stats.PacketsLost, losses)
	}

	// Airtime accumulates per attempt, acknowledged or not:
	// (5+16)*8 = 168 bits, *9/10 = 151, at 10 kbit/s = 15100 µs.
	wantAirtime := time.Duration(sends) * 15100 * time.Microsecond
	if stats.TotalAirtime != wantAirtime {
		t.Fatalf("TotalAirtime = %v, want %v", stats.TotalAirtime, wantAirtime)
	}

	// Every send returns the radio to idle.
	state, err := d.GetPowerState()
	if err != nil || state != PowerIdle {
		t.Fatalf("state after sends = %v (%v), want idle", state, err)
	}
}

func TestSendPacketAsyncSequentialIDs(t *testing.T) {
	d, _ := newTestRadio(t, 1)

	for want := uint16(1); want <= 3; want++ {
		id, err := d.SendPacketAsync(&Packet{Payload: []byte{0xAA}})
		if err != nil {
			t.Fatalf("SendPacketAsync: %v", err)
		}
		if id != want {
			t.Fatalf("txID = %d, want %d", id, want)
		}
		if err := d.GetTxStatus(id); err != nil {
			t.Fatalf("GetTxStatus(%d): %v", id, err)
		}
	}
}

func TestReceivePacketEmptyBuffer(t *testing.T) {
	d, _ := newTestRadio(t, 1)

	// Standby suppresses the arrival simulation, so the buffer stays empty.
	if err := d.SetPowerState(PowerStandby); err != nil {
		t.Fatalf("SetPowerState(standby): %v", err)
	}

	if _, err := d.ReceivePacket(context.Background(), 0); err != ErrBufferEmpty {
		t.Fatalf("ReceivePacket(0) = %v, want ErrBufferEmpty", err)
	}

	if _, err := d.ReceivePacket(context.Background(), 200*time.Millisecond); err != ErrTimeout {
		t.Fatalf("ReceivePacket(200ms) = %v, want ErrTimeout", err)
	}

	stats, err := d.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.Timeouts != 1 {
		t.Fatalf("Timeouts = %d, want 1", stats.Timeouts)
	}
}

func TestReceivePacketArrivalSimulation(t *testing.T) {
	d, _ := newTestRadio(t, 5)

	var pkt *Packet
	for i := 0; i < 2000; i++ {
		p, err := d.ReceivePacket(context.Background(), 0)
		if err == ErrBufferEmpty {
			continue
		}
		if err != nil {
			t.Fatalf("ReceivePacket: %v", err)
		}
		pkt = p
		break
	}
	if pkt == nil {
		t.Fatal("no packet arrived in 2000 attempts")
	}

	if pkt.Destination != d.Config().DeviceAddress {
		t.Fatalf("Destination = %v, want own address", pkt.Destination)
	}
	if len(pkt.Payload) < 1 || len(pkt.Payload) > 100 {
		t.Fatalf("payload length = %d, want 1..100", len(pkt.Payload))
	}
	if pkt.Priority != PriorityNormal {
		t.Fatalf("Priority = %v, want normal", pkt.Priority)
	}

	// The arrival was also announced on the events channel.
	select {
	case ev := <-d.Events():
		if ev.Type != EventPacketReceived {
			t.Fatalf("event type = %v, want packet-received", ev.Type)
		}
		if ev.Packet == nil || ev.Packet.ID != pkt.ID {
			t.Fatal("event packet does not match received packet")
		}
	default:
		t.Fatal("no event published for arrival")
	}
}

func TestReceivePacketContextCancellation(t *testing.T) {
	d, _ := newTestRadio(t, 1)
	if err := d.SetPowerState(PowerStandby); err != nil {
		t.Fatalf("SetPowerState(standby): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.ReceivePacket(ctx, time.Second); err != context.Canceled {
		t.Fatalf("ReceivePacket with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestEventsOnSendFailure(t *testing.T) {
	d, _ := newTestRadio(t, 17)

	for i := 0; i < 200; i++ {
		if err := d.SendPacket(&Packet{Payload: []byte{1}}); err == ErrNoAck {
			select {
			case ev := <-d.Events():
				if ev.Type != EventTxFailed {
					t.Fatalf("event type = %v, want tx-failed", ev.Type)
				}
				return
			default:
				t.Fatal("no event published for failed send")
			}
		}
	}
	t.Fatal("no send failed in 200 attempts")
}

func TestSelfTestAndFirmwareVersion(t *testing.T) {
	d, _ := newTestRadio(t, 1)

	result, err := d.SelfTest()
	if err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
	if result != 0xFFFFFFFF {
		t.Fatalf("SelfTest = %#x, want all bits set", result)
	}

	version, err := d.FirmwareVersion()
	if err != nil {
		t.Fatalf("FirmwareVersion: %v", err)
	}
	if version != "v2.1.4-sim" {
		t.Fatalf("FirmwareVersion = %q", version)
	}
}

func TestClosedDriverRejectsEverything(t *testing.T) {
	clock := timectrl.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	d, err := Open(testConfig(), Options{Clock: clock, Seed: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != ErrNotInitialized {
		t.Fatalf("second Close = %v, want ErrNotInitialized", err)
	}

	if err := d.Configure(testConfig()); err != ErrNotInitialized {
		t.Fatalf("Configure = %v", err)
	}
	if err := d.SendPacket(&Packet{}); err != ErrNotInitialized {
		t.Fatalf("SendPacket = %v", err)
	}
	if _, err := d.ReceivePacket(context.Background(), 0); err != ErrNotInitialized {
		t.Fatalf("ReceivePacket = %v", err)
	}
	if _, err := d.GetStatistics(); err != ErrNotInitialized {
		t.Fatalf("GetStatistics = %v", err)
	}
	if err := d.JoinNetwork(1000, make([]byte, NetworkKeySize), time.Second); err != ErrNotInitialized {
		t.Fatalf("JoinNetwork = %v", err)
	}
	if _, err := d.SelfTest(); err != ErrNotInitialized {
		t.Fatalf("SelfTest = %v", err)
	}

	// The events channel is closed.
	if _, ok := <-d.Events(); ok {
		t.Fatal("events channel still open after Close")
	}
}

func TestErrorDescriptionsDistinct(t *testing.T) {
	codes := []Error{
		ErrNotInitialized, ErrConfig, ErrTimeout, ErrNoAck, ErrCRC,
		ErrInvalidParam, ErrBufferFull, ErrBufferEmpty, ErrChannelBusy,
		ErrPowerFailure, ErrHardware, ErrNotConnected, ErrEncryption,
		ErrPacketTooLarge, ErrNetworkFull, ErrRateLimited,
	}
	seen := make(map[string]Error)
	for _, c := range codes {
		msg := c.Error()
		if msg == "unknown error" {
			t.Errorf("code %d has no description", c)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("codes %d and %d share description %q", prev, c, msg)
		}
		seen[msg] = c
	}
}
