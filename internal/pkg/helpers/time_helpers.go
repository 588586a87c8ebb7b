package helpers

import (
	"time"

	"github.com/yigit/admissions/internal/pkg/logger"
)

// ParseDuration parses a configured duration, falling back to defaultDuration
// when the value is empty or malformed.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration <= 0 {
		logger.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Invalid duration, using default")
		return defaultDuration
	}
	return duration
}
