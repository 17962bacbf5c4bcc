package ds18b20

import "time"

// FamilyCode is the fixed first ROM byte identifying the sensor family.
const FamilyCode = 0x28

// 1-Wire ROM commands.
const (
	CmdSearchROM   = 0xF0
	CmdReadROM     = 0x33
	CmdMatchROM    = 0x55
	CmdSkipROM     = 0xCC
	CmdAlarmSearch = 0xEC
)

// 1-Wire function commands.
const (
	CmdConvertT        = 0x44
	CmdWriteScratchpad = 0x4E
	CmdReadScratchpad  = 0xBE
	CmdCopyScratchpad  = 0x48
	CmdRecallE2        = 0xB8
	CmdReadPowerSupply = 0xB4
)

const (
	// MaxDevices is the hard cap on simulated devices per bus.
	MaxDevices = 8

	// AlarmThresholdMin and AlarmThresholdMax bound the alarm registers, in
	// degrees Celsius.
	AlarmThresholdMin = -55
	AlarmThresholdMax = 125

	// DefaultAlarmHigh and DefaultAlarmLow are the power-on alarm thresholds.
	DefaultAlarmHigh = 125
	DefaultAlarmLow  = -55
)

// ROMCode is the 8-byte unique identifier of a 1-Wire device: family byte,
// 6-byte serial, CRC-8 over the first seven bytes.
type ROMCode [8]byte

// Resolution selects the conversion precision. Values are the configuration
// register encodings of the physical part.
type Resolution uint8

const (
	Resolution9Bit  Resolution = 0x1F // 0.5 degC steps
	Resolution10Bit Resolution = 0x3F // 0.25 degC steps
	Resolution11Bit Resolution = 0x5F // 0.125 degC steps
	Resolution12Bit Resolution = 0x7F // 0.0625 degC steps
)

// ConversionTime returns the worst-case conversion duration for the
// resolution. Unknown values behave like 12-bit, matching the part's
// power-on default.
func (r Resolution) ConversionTime() time.Duration {
	switch r {
	case Resolution9Bit:
		return 94 * time.Millisecond
	case Resolution10Bit:
		return 188 * time.Millisecond
	case Resolution11Bit:
		return 375 * time.Millisecond
	default:
		return 750 * time.Millisecond
	}
}

// Bits reports the resolution width in bits.
func (r Resolution) Bits() int {
	switch r {
	case Resolution9Bit:
		return 9
	case Resolution10Bit:
		return 10
	case Resolution11Bit:
		return 11
	default:
		return 12
	}
}

// mask returns the raw-value mask that clears the undefined low-order bits
// for the resolution.
func (r Resolution) mask() uint16 {
	switch r {
	case Resolution9Bit:
		return 0xFFF8
	case Resolution10Bit:
		return 0xFFFC
	case Resolution11Bit:
		return 0xFFFE
	default:
		return 0xFFFF
	}
}

func (r Resolution) String() string {
	switch r {
	case Resolution9Bit:
		return "9-bit"
	case Resolution10Bit:
		return "10-bit"
	case Resolution11Bit:
		return "11-bit"
	case Resolution12Bit:
		return "12-bit"
	default:
		return "unknown"
	}
}

// PowerMode reports how a device is powered.
type PowerMode int

const (
	PowerParasitic PowerMode = iota
	PowerExternal
)

func (m PowerMode) String() string {
	if m == PowerParasitic {
		return "parasitic"
	}
	return "external"
}

// Device is the caller-visible handle for one simulated sensor. Handles are
// produced by Scan and identify devices by ROM code; configuration calls
// mutate both the handle and the driver's internal record.
type Device struct {
	ROMCode    ROMCode
	Resolution Resolution
	PowerMode  PowerMode

	// AlarmHigh and AlarmLow are the TH/TL alarm registers in degrees
	// Celsius. AlarmLow must stay strictly below AlarmHigh.
	AlarmHigh int8
	AlarmLow  int8

	// Initialized marks handles produced by Scan. Zero-valued handles are
	// rejected with ErrInvalidParam.
	Initialized bool
}
