package viewer

import (
	"fmt"
	"time"
)

// Config tunes a Renderer. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	MinScale  float64
	MaxScale  float64
	ScaleStep float64
	// InitialScale overrides the fit-to-container scale when positive.
	InitialScale float64
	// Debounce is the trailing window for scroll and resize bursts.
	Debounce time.Duration
	PageGap  float64
	Padding  float64
	// FitMargin is left free on each side when fitting a page.
	FitMargin float64
	// ReadAhead is how many pages beyond the visible range are queued
	// behind the visible ones.
	ReadAhead int
}

func DefaultConfig() Config {
	return Config{
		MinScale:  0.25,
		MaxScale:  5.0,
		ScaleStep: 0.25,
		Debounce:  100 * time.Millisecond,
		PageGap:   10,
		Padding:   20,
		FitMargin: 20,
	}
}

func (c Config) Validate() error {
	if c.MinScale <= 0 {
		return fmt.Errorf("min scale must be positive, got %v", c.MinScale)
	}
	if c.MaxScale < c.MinScale {
		return fmt.Errorf("max scale %v is below min scale %v", c.MaxScale, c.MinScale)
	}
	if c.ScaleStep <= 0 {
		return fmt.Errorf("scale step must be positive, got %v", c.ScaleStep)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %v", c.Debounce)
	}
	if c.PageGap < 0 || c.Padding < 0 || c.FitMargin < 0 {
		return fmt.Errorf("page gap, padding and fit margin must not be negative")
	}
	if c.ReadAhead < 0 {
		return fmt.Errorf("read ahead must not be negative, got %d", c.ReadAhead)
	}
	return nil
}
