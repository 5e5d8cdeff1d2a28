package simulation

import (
	"fmt"
	"math"
	"time"

	"taxi-simulator/internal/game/router"
)

const DefaultTickInterval = 30 * time.Millisecond

type Config struct {
	// Speed is in smoothed-path points per tick.
	Speed             float64
	SamplesPerSegment int
	RouteCacheSize    int
	MaxRadioLogSize   int
}

func DefaultConfig() Config {
	return Config{
		Speed:             2,
		SamplesPerSegment: 15,
		RouteCacheSize:    router.DefaultCacheSize,
		MaxRadioLogSize:   50,
	}
}

func (c Config) Validate() error {
	if !(c.Speed > 0) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("speed must be finite and positive, got %g", c.Speed)
	}
	if c.SamplesPerSegment < 1 {
		return fmt.Errorf("samples per segment must be at least 1, got %d", c.SamplesPerSegment)
	}
	if c.MaxRadioLogSize < 0 {
		return fmt.Errorf("radio log size must not be negative, got %d", c.MaxRadioLogSize)
	}
	return nil
}
