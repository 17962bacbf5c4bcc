package radio

import "time"

// packetOverheadBytes covers preamble, sync word, header and CRC trailer in
// the airtime estimate.
const packetOverheadBytes = 16

// CalculateAirtime estimates the on-air duration of a packet with the given
// payload size: payload plus fixed overhead, scaled by the modulation's
// efficiency factor, divided by the data rate. Pure function with
// microsecond precision.
func CalculateAirtime(payloadSize int, rate DataRate, modulation Modulation) time.Duration {
	if payloadSize < 0 {
		payloadSize = 0
	}

	totalBits := uint64(payloadSize+packetOverheadBytes) * 8

	switch modulation {
	case ModulationGFSK:
		totalBits = totalBits * 9 / 10 // Gaussian shaping, tighter spectrum
	case ModulationLoRa:
		totalBits = totalBits * 3 / 2 // spreading overhead
	case ModulationOOK:
		totalBits = totalBits * 2
	}

	micros := totalBits * 1_000_000 / uint64(rate.BitsPerSecond())
	return time.Duration(micros) * time.Microsecond
}
