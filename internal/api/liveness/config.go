package liveness

import (
	"KYCCapture/internal/entity"
	"KYCCapture/pkg/facezone"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DefaultTolerance facezone.Tolerance
	SessionTTL       time.Duration
	DefaultAxis      entity.CaptureAxis
}

func DefaultConfig() Config {
	return Config{
		DefaultTolerance: facezone.DefaultTolerance,
		SessionTTL:       15 * time.Minute,
		DefaultAxis:      entity.AxisHorizontal,
	}
}

// LoadConfig reads the LIVENESS_* variables. Unparseable values fall back to
// the defaults.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v, err := strconv.Atoi(os.Getenv("LIVENESS_DEFAULT_TOLERANCE")); err == nil && facezone.Tolerance(v).Valid() {
		cfg.DefaultTolerance = facezone.Tolerance(v)
	}

	if v, err := time.ParseDuration(os.Getenv("LIVENESS_SESSION_TTL")); err == nil && v > 0 {
		cfg.SessionTTL = v
	}

	if axis := entity.CaptureAxis(os.Getenv("LIVENESS_AXIS")); axis.Valid() {
		cfg.DefaultAxis = axis
	}

	return cfg
}
