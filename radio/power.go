package radio

import "time"

// PowerState is the radio's power-management state. The state set is flat;
// there are no nested sub-states.
type PowerState int

const (
	PowerOff PowerState = iota
	PowerSleep
	PowerStandby
	PowerIdle
	PowerRx
	PowerTx
)

func (s PowerState) String() string {
	switch s {
	case PowerOff:
		return "off"
	case PowerSleep:
		return "sleep"
	case PowerStandby:
		return "standby"
	case PowerIdle:
		return "idle"
	case PowerRx:
		return "rx"
	case PowerTx:
		return "tx"
	default:
		return "unknown"
	}
}

// currentDrawMilliamps is the per-state current draw table used by the
// power-consumption estimate. Unknown states draw like idle.
func (s PowerState) currentDrawMilliamps() uint64 {
	switch s {
	case PowerOff:
		return 0
	case PowerSleep:
		return 1
	case PowerStandby:
		return 5
	case PowerIdle:
		return 10
	case PowerRx:
		return 20
	case PowerTx:
		return 50
	default:
		return 10
	}
}

// EstimatePowerConsumption returns the charge drawn by duration spent in the
// given power state, in microampere-hours. Pure function; negative durations
// draw nothing and integer arithmetic truncates sub-microampere-hour
// remainders.
func EstimatePowerConsumption(state PowerState, duration time.Duration) uint32 {
	if duration < 0 {
		return 0
	}
	ms := uint64(duration.Milliseconds())
	return uint32(state.currentDrawMilliamps() * 1000 * ms / 3_600_000)
}
