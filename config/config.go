package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/windlore/telemetry/pkg"
)

// Protocol default values, matching the original firmware's constants.
const (
	DefaultSharedSecret       = "SECRET"
	DefaultAckTimeout         = 5 * time.Second
	DefaultHandshakeTimeout   = 5 * time.Second
	DefaultSendInterval       = 5 * time.Second
	DefaultMeasureInterval    = 10 * time.Second
	DefaultLBTDelayGateway    = 100 * time.Millisecond
	DefaultLBTDelaySensor     = 1000 * time.Millisecond
	DefaultPostBatchDelayGW   = 2 * time.Second
	DefaultValueQueueCapacity = 4
)

// Protocol holds every configuration key named in the telemetry protocol's
// external interface. Zero values are never valid; Load always returns a
// Protocol fully populated with either an overridden or a default value.
type Protocol struct {
	SharedSecret          string
	AckTimeout            time.Duration
	HandshakeTimeout      time.Duration
	SendInterval          time.Duration
	MeasureInterval       time.Duration
	LBTDelayGateway       time.Duration
	LBTDelaySensor        time.Duration
	PostBatchDelayGateway time.Duration
	ValueQueueCapacity    int
}

// Load reads path as a .env file (if it exists; a missing file is not an
// error) and then layers the process environment on top, populating every
// field of a Protocol from its corresponding TELEMETRY_* variable or its
// documented default.
func Load(path string) (*Protocol, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	p := &Protocol{
		SharedSecret:          envString("TELEMETRY_SHARED_SECRET", DefaultSharedSecret),
		AckTimeout:            envDuration("TELEMETRY_ACK_TIMEOUT", DefaultAckTimeout),
		HandshakeTimeout:      envDuration("TELEMETRY_HANDSHAKE_TIMEOUT", DefaultHandshakeTimeout),
		SendInterval:          envDuration("TELEMETRY_SEND_INTERVAL", DefaultSendInterval),
		MeasureInterval:       envDuration("TELEMETRY_MEASURE_INTERVAL", DefaultMeasureInterval),
		LBTDelayGateway:       envDuration("TELEMETRY_LBT_DELAY_GATEWAY", DefaultLBTDelayGateway),
		LBTDelaySensor:        envDuration("TELEMETRY_LBT_DELAY_SENSOR", DefaultLBTDelaySensor),
		PostBatchDelayGateway: envDuration("TELEMETRY_POST_BATCH_DELAY_GATEWAY", DefaultPostBatchDelayGW),
		ValueQueueCapacity:    envInt("TELEMETRY_VALUE_QUEUE_CAPACITY", DefaultValueQueueCapacity),
	}

	if p.SharedSecret == "" {
		return nil, pkg.ErrInvalidParameter
	}
	if p.ValueQueueCapacity <= 0 {
		return nil, pkg.ErrInvalidParameter
	}
	pkg.LogInfo(pkg.ComponentDriver, "configuration loaded",
		"ackTimeout", p.AckTimeout, "handshakeTimeout", p.HandshakeTimeout,
		"sendInterval", p.SendInterval, "valueQueueCapacity", p.ValueQueueCapacity)
	return p, nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		pkg.LogWarn(pkg.ComponentDriver, "ignoring invalid duration", "key", key, "value", v, "error", err)
		return def
	}
	return d
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		pkg.LogWarn(pkg.ComponentDriver, "ignoring invalid integer", "key", key, "value", v, "error", err)
		return def
	}
	return n
}
