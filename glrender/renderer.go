package glrender

import (
	"context"
	"errors"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ImageRenderer renders whole frames of a [Config] into RGBA images on the CPU.
// Rows are split into bands rendered concurrently, each band writing to disjoint rows.
type ImageRenderer struct {
	// Workers limits the number of bands rendered at once. Zero uses runtime.NumCPU.
	Workers int
	// BandRows is the number of rows per band. Zero picks a size that gives
	// each worker several bands.
	BandRows int
}

// Render shades every pixel of img at time t. The image is stretched over the
// configuration's virtual viewport so framing does not depend on image size.
// Render returns ctx.Err() if the context is cancelled mid-frame, leaving img partially drawn.
func (ir ImageRenderer) Render(ctx context.Context, cfg *Config, img *image.RGBA, t float32) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	bb := img.Bounds()
	w, h := bb.Dx(), bb.Dy()
	if w <= 0 || h <= 0 {
		return errors.New("empty image")
	}
	workers := ir.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	band := ir.BandRows
	if band <= 0 {
		band = max(1, h/(4*workers))
	}
	vp := cfg.ViewportSize()
	sx := float32(vp[0]) / float32(w)
	sy := float32(vp[1]) / float32(h)
	cam := cfg.Camera.At(t)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < h; start += band {
		start := start
		end := min(start+band, h)
		g.Go(func() error {
			for j := start; j < end; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				fragY := (float32(h-1-j) + 0.5) * sy
				for i := 0; i < w; i++ {
					fragX := (float32(i) + 0.5) * sx
					c := cfg.Shade(cam, fragX, fragY, t)
					img.SetRGBA(bb.Min.X+i, bb.Min.Y+j, ToRGBA(c))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// ToRGBA quantizes a linear [0,1] color to 8 bits per channel, clamping out of range values.
func ToRGBA(c Vec4) color.RGBA {
	return color.RGBA{
		R: uint8(clampf(c.X, 0, 1)*255 + 0.5),
		G: uint8(clampf(c.Y, 0, 1)*255 + 0.5),
		B: uint8(clampf(c.Z, 0, 1)*255 + 0.5),
		A: uint8(clampf(c.W, 0, 1)*255 + 0.5),
	}
}
