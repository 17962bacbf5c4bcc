package ds18b20

// Error is the sensor driver's closed error code set. Every failure returned
// by the driver is one of these values, optionally wrapped with additional
// context; use errors.Is to classify.
type Error int

const (
	// ErrNotInitialized is returned when the driver is used before Open or
	// after Close.
	ErrNotInitialized Error = iota + 1
	// ErrDeviceNotFound is returned when a handle's ROM code does not match
	// any device from the last scan.
	ErrDeviceNotFound
	// ErrCRC is reserved for scratchpad checksum failures. The simulation
	// always generates self-consistent data, so it is never produced, but it
	// remains part of the taxonomy for API compatibility.
	ErrCRC
	// ErrTimeout is returned when a conversion does not complete within the
	// blocking-read deadline.
	ErrTimeout
	// ErrInvalidParam is returned for nil or out-of-range arguments.
	ErrInvalidParam
	// ErrConversion is reserved for conversion failures; never produced by
	// the simulation.
	ErrConversion
	// ErrComm is reserved for bus communication failures; never produced by
	// the simulation.
	ErrComm
)

// Error returns the fixed human-readable description for the code.
func (e Error) Error() string {
	switch e {
	case ErrNotInitialized:
		return "driver not initialized"
	case ErrDeviceNotFound:
		return "sensor not found"
	case ErrCRC:
		return "CRC error"
	case ErrTimeout:
		return "operation timeout"
	case ErrInvalidParam:
		return "invalid parameter"
	case ErrConversion:
		return "temperature conversion error"
	case ErrComm:
		return "communication error"
	default:
		return "unknown error"
	}
}
