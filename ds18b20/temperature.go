package ds18b20

// Reading is one temperature measurement. Produced fresh on every read; the
// raw value is the quantized fixed-point encoding the Celsius value was
// derived from.
type Reading struct {
	Celsius    float64
	Fahrenheit float64
	Raw        uint16
	Valid      bool
}

// rawLSB is the fixed-point scale of the raw temperature encoding: one unit
// is 1/16 degC at every resolution. Lower resolutions do not change the
// scale, they only leave the low-order bits undefined (cleared here).
const rawLSB = 16.0

// celsiusToRaw quantizes a Celsius value to the device's resolution by
// encoding at 1/16 degC and clearing the resolution's undefined low bits.
func celsiusToRaw(c float64, res Resolution) uint16 {
	return uint16(int16(c*rawLSB)) & res.mask()
}

// RawToCelsius converts a raw scratchpad value back to degrees Celsius. The
// resolution does not affect the scale; it is accepted so callers can pair
// this with the quantization that produced the value.
func RawToCelsius(raw uint16, _ Resolution) float64 {
	return float64(int16(raw)) / rawLSB
}

// CelsiusToFahrenheit converts degrees Celsius to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}
