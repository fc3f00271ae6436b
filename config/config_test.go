package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaultsWithNoFileOrEnv(t *testing.T) {
	clearEnv(t)
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.SharedSecret != DefaultSharedSecret {
		t.Errorf("SharedSecret = %q, want %q", p.SharedSecret, DefaultSharedSecret)
	}
	if p.AckTimeout != DefaultAckTimeout {
		t.Errorf("AckTimeout = %v, want %v", p.AckTimeout, DefaultAckTimeout)
	}
	if p.ValueQueueCapacity != DefaultValueQueueCapacity {
		t.Errorf("ValueQueueCapacity = %d, want %d", p.ValueQueueCapacity, DefaultValueQueueCapacity)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEMETRY_SHARED_SECRET", "swordfish")
	t.Setenv("TELEMETRY_ACK_TIMEOUT", "250ms")
	t.Setenv("TELEMETRY_VALUE_QUEUE_CAPACITY", "8")

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.SharedSecret != "swordfish" {
		t.Errorf("SharedSecret = %q, want swordfish", p.SharedSecret)
	}
	if p.AckTimeout != 250*time.Millisecond {
		t.Errorf("AckTimeout = %v, want 250ms", p.AckTimeout)
	}
	if p.ValueQueueCapacity != 8 {
		t.Errorf("ValueQueueCapacity = %d, want 8", p.ValueQueueCapacity)
	}
}

func TestLoadInvalidDurationFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEMETRY_ACK_TIMEOUT", "not-a-duration")
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.AckTimeout != DefaultAckTimeout {
		t.Errorf("AckTimeout = %v, want default %v", p.AckTimeout, DefaultAckTimeout)
	}
}

func TestLoadZeroQueueCapacityIsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEMETRY_VALUE_QUEUE_CAPACITY", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("Load() error = nil, want non-nil for zero queue capacity")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEMETRY_SHARED_SECRET", "TELEMETRY_ACK_TIMEOUT", "TELEMETRY_HANDSHAKE_TIMEOUT",
		"TELEMETRY_SEND_INTERVAL", "TELEMETRY_MEASURE_INTERVAL", "TELEMETRY_LBT_DELAY_GATEWAY",
		"TELEMETRY_LBT_DELAY_SENSOR", "TELEMETRY_POST_BATCH_DELAY_GATEWAY", "TELEMETRY_VALUE_QUEUE_CAPACITY",
	} {
		os.Unsetenv(key)
	}
}
