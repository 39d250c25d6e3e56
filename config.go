package examsplit

import "log/slog"

// Config controls extraction behavior. The zero value is usable; unset
// fields fall back to the defaults below.
type Config struct {
	// OutputDir receives one enhanced PNG per question. The directory is
	// deleted and recreated at the start of every run, so it must be
	// exclusively owned by the extraction run writing into it.
	OutputDir string

	// MaxQuestions is the highest question number a detection strategy
	// will accept (default: 50).
	MaxQuestions int

	// Zoom is the render scale relative to the page's native 72 DPI.
	// The default of 2.0 renders at 144 DPI.
	Zoom float64

	// EnhancementFactor controls the contrast and sharpness boost applied
	// to each saved image. 1.0 disables enhancement; the default 1.05 is a
	// deliberately subtle lift (default: 1.05).
	EnhancementFactor float64

	// Logger for progress and per-question failure messages.
	Logger *slog.Logger `json:"-"`
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		OutputDir:         "images",
		MaxQuestions:      50,
		Zoom:              2.0,
		EnhancementFactor: 1.05,
	}
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "images"
	}
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = 50
	}
	if c.Zoom <= 0 {
		c.Zoom = 2.0
	}
	if c.EnhancementFactor <= 0 {
		c.EnhancementFactor = 1.05
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
