// Package telemetry packs sensor readings into Cayenne LPP payloads sized
// for the radio link, and unpacks them on the receiving side. LPP carries
// temperature at 0.1 degree resolution, which is coarser than the sensor's
// best resolution but compact enough to batch many channels per packet.
package telemetry

import (
	"bytes"
	"strings"

	"github.com/akhenakh/cayenne"
	"github.com/pkg/errors"

	"github.com/signalsfoundry/peripheral-simulator/ds18b20"
	"github.com/signalsfoundry/peripheral-simulator/radio"
)

// Encode packs the readings into an LPP uplink payload, one LPP channel per
// reading, channels numbered from 1 in input order. Invalid readings and
// payloads exceeding the radio's size limit are rejected.
func Encode(readings []ds18b20.Reading) ([]byte, error) {
	if len(readings) == 0 {
		return nil, errors.New("no readings to encode")
	}

	e := cayenne.NewEncoder()
	for i, r := range readings {
		if !r.Valid {
			return nil, errors.Errorf("reading %d is not valid", i)
		}
		e.AddTemperature(uint8(i+1), float32(r.Celsius))
	}

	payload := e.Bytes()
	if len(payload) > radio.MaxPayloadSize {
		return nil, errors.Errorf("payload is %d bytes, radio limit is %d", len(payload), radio.MaxPayloadSize)
	}
	return payload, nil
}

// Decode recovers the temperature values from an LPP uplink payload, keyed
// by the decoder's channel-qualified field names. Non-temperature fields are
// ignored.
func Decode(payload []byte) (map[string]float64, error) {
	msg, err := cayenne.NewDecoder(bytes.NewReader(payload)).DecodeUplink()
	if err != nil {
		return nil, errors.Wrap(err, "decode uplink")
	}

	out := make(map[string]float64)
	for k, v := range msg.Values() {
		if !strings.HasPrefix(strings.ToLower(k), "temperature") {
			continue
		}
		switch t := v.(type) {
		case float32:
			out[k] = float64(t)
		case float64:
			out[k] = t
		default:
			return nil, errors.Errorf("unexpected value type %T for %s", v, k)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no temperature values in payload")
	}
	return out, nil
}
