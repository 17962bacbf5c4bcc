package radio

import (
	"testing"
	"time"
)

func TestCalculateAirtimeExactValues(t *testing.T) {
	// Zero payload still carries 16 bytes = 128 bits of framing overhead.
	cases := []struct {
		name       string
		rate       DataRate
		modulation Modulation
		want       time.Duration
	}{
		{"fsk-1k", DataRate1K, ModulationFSK, 128 * time.Millisecond},
		{"gfsk-1k", DataRate1K, ModulationGFSK, 115 * time.Millisecond},
		{"lora-1k", DataRate1K, ModulationLoRa, 192 * time.Millisecond},
		{"ook-1k", DataRate1K, ModulationOOK, 256 * time.Millisecond},
		{"fsk-250k", DataRate250K, ModulationFSK, 512 * time.Microsecond},
	}
	for _, tc := range cases {
		got := CalculateAirtime(0, tc.rate, tc.modulation)
		if got != tc.want {
			t.Errorf("%s: airtime = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCalculateAirtimeMonotonicInPayload(t *testing.T) {
	prev := time.Duration(-1)
	for size := 0; size <= MaxPayloadSize; size += 10 {
		got := CalculateAirtime(size, DataRate10K, ModulationGFSK)
		if got <= prev {
			t.Fatalf("airtime not increasing: %v at size %d after %v", got, size, prev)
		}
		prev = got
	}
}

func TestCalculateAirtimeFasterRateIsShorter(t *testing.T) {
	slow := CalculateAirtime(100, DataRate10K, ModulationFSK)
	fast := CalculateAirtime(100, DataRate250K, ModulationFSK)
	if fast >= slow {
		t.Fatalf("250k airtime %v not shorter than 10k airtime %v", fast, slow)
	}
}

func TestCalculateAirtimeNegativePayloadClamped(t *testing.T) {
	got := CalculateAirtime(-5, DataRate1K, ModulationFSK)
	want := CalculateAirtime(0, DataRate1K, ModulationFSK)
	if got != want {
		t.Fatalf("airtime(-5) = %v, want %v", got, want)
	}
}
