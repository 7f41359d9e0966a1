package gsdfaux

import (
	"context"
	"errors"
	"fmt"
	"image"

	interstella "github.com/ryry0/Interstella"
)

// UIConfig configures the window opened by [UI].
type UIConfig struct {
	Width, Height int
	// Texture is uploaded for triplanar demos. Nil uses [CheckerImage].
	Texture image.Image
	// Context cancels the render loop when done. May be nil.
	Context context.Context
}

// UI opens a window and renders demo with a generated fragment shader until the
// window is closed. The time uniform advances with wall clock time. UI must be
// called from the main OS thread and requires cgo.
func UI(demo interstella.Demo, cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if demo.Scene == nil {
		return errors.New("demo has no scene")
	}
	return ui(demo, cfg)
}
