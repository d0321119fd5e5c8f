package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load env from .env
	godotenv.Load()
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

func durationMsFromEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// FetchPolicy decides how the village selector treats a fetch that resolves after
// a newer selection was made.
//
// Set via env:
// - ASSET_FETCH_POLICY=latest-wins | first-wins | apply-all
func FetchPolicy() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ASSET_FETCH_POLICY")))
	switch v {
	case "latest-wins", "first-wins", "apply-all":
		return v
	default:
		return "latest-wins"
	}
}

// FetchLatency is the base simulated latency of an asset fetch. The selector adds up to
// 800ms of jitter on top; ASSET_FETCH_LATENCY_MS=0 disables the delay entirely.
func FetchLatency() time.Duration {
	return durationMsFromEnv("ASSET_FETCH_LATENCY_MS", 1200*time.Millisecond)
}

func StatsProcessingDelay() time.Duration {
	return durationMsFromEnv("STATS_PROCESSING_MS", 800*time.Millisecond)
}

func DetectionProcessingDelay() time.Duration {
	return durationMsFromEnv("DETECTION_PROCESSING_MS", 2000*time.Millisecond)
}

// RandomSeed returns ASSET_RANDOM_SEED when set, so a deployment can replay the same
// synthetic data. ok is false when the generator should seed from the clock.
func RandomSeed() (seed int64, ok bool) {
	v := strings.TrimSpace(os.Getenv("ASSET_RANDOM_SEED"))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func AssetCacheTTL() time.Duration {
	return time.Duration(intFromEnv("ASSET_CACHE_TTL_SECONDS", 3600)) * time.Second
}

func AssetUpdatesTopic() string {
	if v := strings.TrimSpace(os.Getenv("ASSET_UPDATES_TOPIC")); v != "" {
		return v
	}
	return "asset-updates"
}

func PubSubPushEndpointEnabled() bool {
	return envBoolDefault("ENABLE_ASSET_PUBSUB_PUSH_ENDPOINT", true)
}

func GeoJSONDistrictsDir() string {
	v := strings.TrimSpace(os.Getenv("GEOJSON_DISTRICTS_DIR"))
	if v == "" {
		return "data/new_districts"
	}
	return v
}

func ExportBucket() string {
	return strings.TrimSpace(os.Getenv("EXPORT_GCS_BUCKET"))
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}
