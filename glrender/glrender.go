package glrender

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Sphere marching and shading constants shared by the CPU renderer and the
// generated GLSL so that both paths render the same image.
const (
	// MaxMarchSteps is the iteration cap of [RayMarch].
	MaxMarchSteps = 64
	// HitEpsilon is the field distance below which a ray is considered to hit a surface.
	HitEpsilon float32 = 0.001
	// FarLimit is the traveled distance beyond which a ray is considered to miss.
	FarLimit float32 = 30.0
	// MaxShadowSteps is the iteration cap of [CastShadow].
	MaxShadowSteps = 50
	// ShadowStart is the distance the shadow ray starts at to avoid hitting the surface it leaves.
	ShadowStart = 10 * HitEpsilon
	// ShadowSharpness is the penumbra intensity factor used by [LambertLight].
	ShadowSharpness float32 = 16.0
	// NormalDelta is the central difference offset used by [ComputeNormal].
	NormalDelta float32 = 0.0001
	// FogDensity controls how fast [ApplyFog] saturates with distance.
	FogDensity float32 = 0.2
	// TriplanarSharpness is the exponent applied to normal components when blending projections.
	TriplanarSharpness float32 = 8.0
	// DefaultFocalLength is the distance from eye to the image plane.
	DefaultFocalLength float32 = 2.0

	// ViewportWidth and ViewportHeight are the dimensions of the virtual viewport
	// fragment coordinates are normalized against, regardless of the output image size.
	ViewportWidth  = 1280
	ViewportHeight = 720
)

var (
	// SkyColor is the color of rays that miss all geometry and the color fog converges to.
	SkyColor = ms3.Vec{X: 0.31, Y: 0.47, Z: 0.67}
	// AmbientColor is the color of surfaces not reached by a light.
	AmbientColor = ms3.Vec{X: 0.15, Y: 0.2, Z: 0.32}
)

// Vec4 is a four component vector, used for RGBA colors.
type Vec4 struct {
	X, Y, Z, W float32
}

// Add returns a+b.
func (a Vec4) Add(b Vec4) Vec4 {
	return Vec4{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z, W: a.W + b.W}
}

// Scale returns a scaled by f.
func (a Vec4) Scale(f float32) Vec4 {
	return Vec4{X: a.X * f, Y: a.Y * f, Z: a.Z * f, W: a.W * f}
}

// XYZ returns the first three components of a.
func (a Vec4) XYZ() ms3.Vec {
	return ms3.Vec{X: a.X, Y: a.Y, Z: a.Z}
}

// Normalize returns v scaled to unit length.
//
// Normalizing the zero vector is undefined in GLSL. Normalize returns the zero
// vector unchanged in that case so degenerate directions propagate as zero
// vectors instead of NaNs.
func Normalize(v ms3.Vec) ms3.Vec {
	n := ms3.Norm(v)
	if n == 0 {
		return v
	}
	return ms3.Scale(1/n, v)
}

func mix3(x, y ms3.Vec, a float32) ms3.Vec {
	return ms3.Add(ms3.Scale(1-a, x), ms3.Scale(a, y))
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

// modf is GLSL's mod: x - y*floor(x/y). The result has the sign of y.
func modf(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}
