package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL bounds and environment overrides.
const (
	// DefaultTTLSeconds is one hour.
	DefaultTTLSeconds = 3600
	// MinTTLSeconds is one minute.
	MinTTLSeconds = 60
	// MaxTTLSeconds is seven days.
	MaxTTLSeconds = 604800

	minutesPerHour = 60
	hoursPerDay    = 24

	EnvTTLSeconds   = "FOOTPRINT_CACHE_TTL_SECONDS"
	EnvCacheEnabled = "FOOTPRINT_CACHE_ENABLED"
	EnvCacheDir     = "FOOTPRINT_CACHE_DIR"
)

// ErrInvalidTTL is returned for TTLs outside [MinTTLSeconds, MaxTTLSeconds].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// ValidateTTL checks seconds against the allowed range.
func ValidateTTL(seconds int) error {
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return nil
}

// GetTTLFromEnv returns the TTL from FOOTPRINT_CACHE_TTL_SECONDS, or def
// when unset or invalid.
func GetTTLFromEnv(def int) int {
	envVal := os.Getenv(EnvTTLSeconds)
	if envVal == "" {
		return def
	}
	ttl, err := strconv.Atoi(envVal)
	if err != nil || ValidateTTL(ttl) != nil {
		return def
	}
	return ttl
}

// GetCacheEnabledFromEnv returns FOOTPRINT_CACHE_ENABLED, or def when unset
// or unparseable.
func GetCacheEnabledFromEnv(def bool) bool {
	envVal := os.Getenv(EnvCacheEnabled)
	if envVal == "" {
		return def
	}
	enabled, err := strconv.ParseBool(envVal)
	if err != nil {
		return def
	}
	return enabled
}

// GetCacheDirFromEnv returns FOOTPRINT_CACHE_DIR or "".
func GetCacheDirFromEnv() string {
	return os.Getenv(EnvCacheDir)
}

// FormatDuration formats d as "30s", "5m", "2h30m" or "3d2h".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % minutesPerHour
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

// ParseTTL accepts integer seconds ("3600") or a duration ("1h30m").
func ParseTTL(s string) (int, error) {
	if seconds, err := strconv.Atoi(s); err == nil {
		if vErr := ValidateTTL(seconds); vErr != nil {
			return 0, vErr
		}
		return seconds, nil
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TTL format: %w", err)
	}
	seconds := int(duration.Seconds())
	if vErr := ValidateTTL(seconds); vErr != nil {
		return 0, vErr
	}
	return seconds, nil
}
