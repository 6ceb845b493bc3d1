package ui

// Config contains window/input/audio related settings.
type Config struct {
	Title   string // window title
	Scale   int    // integer upscaling factor
	Palette string // name of a display.Palettes entry
	Muted   bool   // start with the beeper silenced
	ROMsDir string // directory to browse for ROMs
	// Audio buffering
	AudioBufferMs int
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "chip8"
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if c.Palette == "" {
		c.Palette = "classic"
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 40
	}
}
