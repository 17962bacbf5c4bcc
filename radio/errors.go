package radio

// Error is the radio driver's closed error code set, distinct from the
// sensor driver's. Several codes (CRC, channel-busy, hardware, encryption,
// network-full, rate-limited) are part of the taxonomy for API completeness
// but are never produced by the simulation.
type Error int

const (
	// ErrNotInitialized is returned when the driver is used before Open or
	// after Close.
	ErrNotInitialized Error = iota + 1
	// ErrConfig is returned for invalid configurations and for state-machine
	// violations (configuring a non-idle radio, waking straight into Rx/Tx
	// from Off).
	ErrConfig
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout
	// ErrNoAck is returned when a transmission goes unacknowledged.
	ErrNoAck
	// ErrCRC is reserved for receive checksum failures.
	ErrCRC
	// ErrInvalidParam is returned for nil or out-of-range arguments.
	ErrInvalidParam
	// ErrBufferFull is reserved for TX queue exhaustion.
	ErrBufferFull
	// ErrBufferEmpty is returned by a zero-timeout receive on an empty
	// buffer.
	ErrBufferEmpty
	// ErrChannelBusy is reserved for CSMA backoff failures.
	ErrChannelBusy
	// ErrPowerFailure is returned for data operations while the radio is
	// powered off.
	ErrPowerFailure
	// ErrHardware is reserved for hardware faults.
	ErrHardware
	// ErrNotConnected is returned by network queries when not joined.
	ErrNotConnected
	// ErrEncryption is reserved for security failures.
	ErrEncryption
	// ErrPacketTooLarge is returned when a payload exceeds MaxPayloadSize.
	ErrPacketTooLarge
	// ErrNetworkFull is reserved for join rejections on saturated networks.
	ErrNetworkFull
	// ErrRateLimited is reserved for duty-cycle enforcement.
	ErrRateLimited
)

// Error returns the fixed human-readable description for the code.
func (e Error) Error() string {
	switch e {
	case ErrNotInitialized:
		return "radio not initialized"
	case ErrConfig:
		return "configuration error"
	case ErrTimeout:
		return "operation timeout"
	case ErrNoAck:
		return "no acknowledgment received"
	case ErrCRC:
		return "CRC error"
	case ErrInvalidParam:
		return "invalid parameter"
	case ErrBufferFull:
		return "buffer full"
	case ErrBufferEmpty:
		return "buffer empty"
	case ErrChannelBusy:
		return "channel busy"
	case ErrPowerFailure:
		return "power supply failure"
	case ErrHardware:
		return "hardware failure"
	case ErrNotConnected:
		return "not connected to network"
	case ErrEncryption:
		return "encryption/decryption error"
	case ErrPacketTooLarge:
		return "packet exceeds size limit"
	case ErrNetworkFull:
		return "network capacity exceeded"
	case ErrRateLimited:
		return "rate limit exceeded"
	default:
		return "unknown error"
	}
}
