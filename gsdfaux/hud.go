package gsdfaux

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	hudFontSize = 14
	hudPadding  = 4
)

var (
	hudOnce sync.Once
	hudFont *truetype.Font
	hudErr  error
)

func hudFace() (font.Face, error) {
	hudOnce.Do(func() {
		hudFont, hudErr = truetype.Parse(goregular.TTF)
	})
	if hudErr != nil {
		return nil, hudErr
	}
	return truetype.NewFace(hudFont, &truetype.Options{
		Size:    hudFontSize,
		Hinting: font.HintingFull,
	}), nil
}

// DrawHUD draws text in the top left corner of img over a translucent backdrop.
func DrawHUD(img draw.Image, text string) error {
	face, err := hudFace()
	if err != nil {
		return err
	}
	defer face.Close()
	metrics := face.Metrics()
	bounds := img.Bounds()
	d := font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	backdrop := image.Rect(0, 0, width+2*hudPadding, height+2*hudPadding).Add(bounds.Min).Intersect(bounds)
	draw.Draw(img, backdrop, image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Over)
	d.Dot = fixed.Point26_6{
		X: fixed.I(bounds.Min.X + hudPadding),
		Y: fixed.I(bounds.Min.Y+hudPadding) + metrics.Ascent,
	}
	d.DrawString(text)
	return nil
}
