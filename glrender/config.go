package glrender

import (
	"errors"
	"fmt"

	"github.com/ryry0/Interstella/gleval"
	"github.com/soypat/geometry/ms3"
)

// ShadingMode selects how surface hits are colored.
type ShadingMode uint8

const (
	// ShadeFlatLambert averages the Lambert contribution of every light.
	ShadeFlatLambert ShadingMode = iota
	// ShadeTriplanar colors hits with a triplanar projection of the texture.
	ShadeTriplanar
)

func (m ShadingMode) String() string {
	switch m {
	case ShadeFlatLambert:
		return "lambert"
	case ShadeTriplanar:
		return "triplanar"
	}
	return fmt.Sprintf("ShadingMode(%d)", uint8(m))
}

var (
	errNoScene        = errors.New("nil scene")
	errNoTexture      = errors.New("triplanar shading requires a texture")
	errBadViewport    = errors.New("viewport dimensions must be positive")
	errUnknownShading = errors.New("unknown shading mode")
)

// Config describes everything needed to shade a pixel. A Config is not
// modified while rendering and may be shared by many goroutines.
type Config struct {
	Scene  gleval.SDF3
	Camera CameraRig
	Lights []Light
	Mode   ShadingMode
	// Texture is sampled by ShadeTriplanar.
	Texture Sampler
	// Sky is the background and fog color.
	Sky ms3.Vec
	// Ambient is the color of surfaces not lit by a light.
	Ambient ms3.Vec
	// Viewport is the virtual viewport fragment coordinates are normalized
	// against. Zero value uses ViewportWidth x ViewportHeight.
	Viewport [2]int
}

// Validate reports configuration errors that would make [Config.Shade] misbehave.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Scene == nil {
		errs = append(errs, errNoScene)
	}
	switch cfg.Mode {
	case ShadeFlatLambert:
	case ShadeTriplanar:
		if cfg.Texture == nil {
			errs = append(errs, errNoTexture)
		}
	default:
		errs = append(errs, fmt.Errorf("%w %d", errUnknownShading, cfg.Mode))
	}
	if cfg.Viewport != [2]int{} && (cfg.Viewport[0] <= 0 || cfg.Viewport[1] <= 0) {
		errs = append(errs, errBadViewport)
	}
	return errors.Join(errs...)
}

// ViewportSize returns the virtual viewport dimensions in use.
func (cfg *Config) ViewportSize() [2]int {
	if cfg.Viewport == [2]int{} {
		return [2]int{ViewportWidth, ViewportHeight}
	}
	return cfg.Viewport
}

// Shade returns the color of the fragment at fragX,fragY, given in GL convention
// (origin at bottom-left, pixel centers at +0.5), with camera cam at time t.
// Alpha is always 1.
func (cfg *Config) Shade(cam Camera, fragX, fragY, t float32) Vec4 {
	u, v := NormalizedCoords(fragX, fragY, cfg.ViewportSize())
	ray := cam.Ray(u, v)
	march := RayMarch(cfg.Scene, ray.Origin, ray.Dir, t)
	color := cfg.Sky
	if march.Hit {
		color = cfg.shadeHit(ray.At(march.Distance), march.Distance, cam.Focal, t)
	}
	color = ApplyFog(color, cfg.Sky, march.Distance)
	return Vec4{X: color.X, Y: color.Y, Z: color.Z, W: 1}
}

func (cfg *Config) shadeHit(p ms3.Vec, distance, focal, t float32) ms3.Vec {
	switch cfg.Mode {
	case ShadeTriplanar:
		n := ComputeNormal(cfg.Scene, p, t)
		c := Triplanar(cfg.textureAt(distance, focal), Periodize(p), n, TriplanarSharpness).XYZ()
		return brighten(c)
	default:
		if len(cfg.Lights) == 0 {
			return cfg.Ambient
		}
		var sum ms3.Vec
		for _, l := range cfg.Lights {
			sum = ms3.Add(sum, LambertLight(cfg.Scene, p, l.At(t), l.Color, cfg.Ambient, t))
		}
		return ms3.Scale(1/float32(len(cfg.Lights)), sum)
	}
}

// textureAt returns the texture sampler for a surface distance away from a
// camera with the given focal length, selecting a mipmap level when available.
func (cfg *Config) textureAt(distance, focal float32) Sampler {
	mip, ok := cfg.Texture.(MipSampler)
	if !ok {
		return cfg.Texture
	}
	w, h := mip.Size()
	vp := cfg.ViewportSize()
	// World size of one viewport pixel at distance, halved by the period of Periodize.
	footprint := distance * 2 / (float32(min(vp[0], vp[1])) * focal) / 2
	return levelSampler{tex: mip, lod: MipLevel(footprint, max(w, h))}
}
