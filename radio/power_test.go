package radio

import (
	"testing"
	"time"
)

func TestEstimatePowerConsumption(t *testing.T) {
	cases := []struct {
		name     string
		state    PowerState
		duration time.Duration
		want     uint32
	}{
		// 10 mA for one hour is exactly 10000 µAh.
		{"idle-hour", PowerIdle, time.Hour, 10000},
		{"off-hour", PowerOff, time.Hour, 0},
		// 50 mA for one second: 50*1000*1000/3600000 truncates to 13.
		{"tx-second", PowerTx, time.Second, 13},
		// 1 mA for 500 ms truncates to zero.
		{"sleep-half-second", PowerSleep, 500 * time.Millisecond, 0},
		{"rx-hour", PowerRx, time.Hour, 20000},
		{"standby-hour", PowerStandby, time.Hour, 5000},
		// Negative durations draw nothing rather than wrapping through the
		// unsigned millisecond conversion.
		{"tx-negative", PowerTx, -time.Hour, 0},
	}
	for _, tc := range cases {
		got := EstimatePowerConsumption(tc.state, tc.duration)
		if got != tc.want {
			t.Errorf("%s: consumption = %d µAh, want %d", tc.name, got, tc.want)
		}
	}
}

func TestPowerStateStrings(t *testing.T) {
	states := []PowerState{PowerOff, PowerSleep, PowerStandby, PowerIdle, PowerRx, PowerTx}
	seen := make(map[string]bool)
	for _, s := range states {
		name := s.String()
		if name == "unknown" {
			t.Errorf("state %d has no name", s)
		}
		if seen[name] {
			t.Errorf("duplicate state name %q", name)
		}
		seen[name] = true
	}
	if PowerState(99).String() != "unknown" {
		t.Error("out-of-range state should stringify as unknown")
	}
}
