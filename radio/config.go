package radio

import "time"

// Fixed characteristics of the simulated transceiver. Compatible
// reimplementations must preserve these exactly.
const (
	// MaxPayloadSize is the largest packet payload, in bytes.
	MaxPayloadSize = 246
	// MaxRetries is the largest permitted retry count.
	MaxRetries = 5
	// MaxChannels is the number of RF channels; valid indices are
	// 0..MaxChannels-1.
	MaxChannels = 125
	// RSSIMin and RSSIMax bound simulated signal strength, in dBm.
	RSSIMin = -120
	RSSIMax = -30
	// AddressSize is the device address width, in bytes.
	AddressSize = 8
	// NetworkKeySize is the network key width, in bytes.
	NetworkKeySize = 16
	// DefaultTxTimeout is the default transmission timeout.
	DefaultTxTimeout = 5 * time.Second
	// RxBufferCapacity is the inbound packet ring size.
	RxBufferCapacity = 32
)

// Address is a device address on the simulated network.
type Address [AddressSize]byte

// TxPower selects the transmission power level.
type TxPower int

const (
	TxPowerMin    TxPower = iota // -20 dBm
	TxPowerLow                   // -10 dBm
	TxPowerMedium                // 0 dBm
	TxPowerHigh                  // +10 dBm
	TxPowerMax                   // +20 dBm
)

// DataRate selects the on-air bit rate.
type DataRate int

const (
	DataRate1K DataRate = iota
	DataRate10K
	DataRate50K
	DataRate100K
	DataRate250K
)

// BitsPerSecond returns the rate's bit/s value. Unknown rates behave like
// 10 kbit/s.
func (r DataRate) BitsPerSecond() int {
	switch r {
	case DataRate1K:
		return 1_000
	case DataRate10K:
		return 10_000
	case DataRate50K:
		return 50_000
	case DataRate100K:
		return 100_000
	case DataRate250K:
		return 250_000
	default:
		return 10_000
	}
}

func (r DataRate) String() string {
	switch r {
	case DataRate1K:
		return "1kbps"
	case DataRate10K:
		return "10kbps"
	case DataRate50K:
		return "50kbps"
	case DataRate100K:
		return "100kbps"
	case DataRate250K:
		return "250kbps"
	default:
		return "unknown"
	}
}

// Modulation selects the modulation scheme.
type Modulation int

const (
	ModulationFSK Modulation = iota
	ModulationGFSK
	ModulationLoRa
	ModulationOOK
)

func (m Modulation) String() string {
	switch m {
	case ModulationFSK:
		return "FSK"
	case ModulationGFSK:
		return "GFSK"
	case ModulationLoRa:
		return "LoRa"
	case ModulationOOK:
		return "OOK"
	default:
		return "unknown"
	}
}

// Security selects the network encryption mode. The simulation stores the
// mode but performs no actual cryptography.
type Security int

const (
	SecurityNone Security = iota
	SecurityWEP
	SecurityWPA
	SecurityAES128
	SecurityAES256
)

// Config is the radio's operating configuration. The driver holds exactly
// one active configuration; Configure swaps it atomically while the radio is
// idle.
type Config struct {
	FrequencyHz uint32
	Channel     uint8
	TxPower     TxPower
	DataRate    DataRate
	Modulation  Modulation
	Security    Security

	NetworkKey    [NetworkKeySize]byte
	DeviceAddress Address
	NetworkID     uint16

	AutoAck    bool
	AutoRetry  bool
	MaxRetries uint8
	TxTimeout  time.Duration
}

// validate reports whether the configuration is acceptable: channel within
// range, retries within the cap, nonzero transmission timeout.
func (c *Config) validate() bool {
	if c == nil {
		return false
	}
	if c.Channel >= MaxChannels {
		return false
	}
	if c.MaxRetries > MaxRetries {
		return false
	}
	if c.TxTimeout == 0 {
		return false
	}
	return true
}
