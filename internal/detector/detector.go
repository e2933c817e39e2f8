package detector

import (
	"strconv"

	"gocv.io/x/gocv"
)

// Detector turns a frame into zero or more hands.
type Detector interface {
	// Detect returns the hands found in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Config tunes the landmark provider. The gesture pipeline never reads it.
type Config struct {
	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64
}

// DefaultConfig tracks a single hand.
func DefaultConfig() Config {
	return Config{MaxHands: 1, MinConfidence: 0.6, MinTrackingConf: 0.6}
}

// serviceArgs renders c as hand service flags. Out-of-range values fall back
// to the defaults.
func (c Config) serviceArgs() []string {
	def := DefaultConfig()
	if c.MaxHands < 1 {
		c.MaxHands = def.MaxHands
	}
	if c.MinConfidence <= 0 || c.MinConfidence > 1 {
		c.MinConfidence = def.MinConfidence
	}
	if c.MinTrackingConf <= 0 || c.MinTrackingConf > 1 {
		c.MinTrackingConf = def.MinTrackingConf
	}
	return []string{
		"--max-hands", strconv.Itoa(c.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(c.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(c.MinTrackingConf, 'f', 2, 64),
	}
}
