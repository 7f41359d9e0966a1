package glrender

import (
	"github.com/chewxy/math32"
	"github.com/ryry0/Interstella/gleval"
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Light is a point light. Position may swing along Y over time.
type Light struct {
	Position ms3.Vec
	Color    ms3.Vec
	// SwingY is the amplitude of the light's Y oscillation at 1Hz. Zero keeps the light still.
	SwingY float32
}

// At returns the light position at time t.
func (l Light) At(t float32) ms3.Vec {
	p := l.Position
	if l.SwingY != 0 {
		p.Y += l.SwingY * math32.Sin(2*math32.Pi*t)
	}
	return p
}

// LambertLight returns the diffuse color contributed by a light at lightPos onto surface point p.
// Shadowed points receive the ambient color only. Otherwise the light's intensity,
// attenuated by the soft shadow factor, blends lightColor over ambient.
func LambertLight(sdf gleval.SDF3, p, lightPos, lightColor, ambient ms3.Vec, t float32) ms3.Vec {
	var intensity float32
	shadow := CastShadow(sdf, p, lightPos, ShadowSharpness, t)
	if shadow > 0 {
		n := ComputeNormal(sdf, p, t)
		l := Normalize(ms3.Sub(lightPos, p))
		intensity = shadow * clampf(ms3.Dot(n, l), 0, 1)
	}
	return ms3.Add(ms3.Scale(intensity, lightColor), ms3.Scale(1-intensity, ambient))
}

// ApplyFog blends color towards fog exponentially with distance.
// A distance of zero returns color unchanged.
func ApplyFog(color, fog ms3.Vec, distance float32) ms3.Vec {
	amount := 1 - math32.Exp(-distance*FogDensity)
	return mix3(color, fog, amount)
}

// Periodize maps p to the [0,1) cube with a period of 2 units along each axis.
func Periodize(p ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: modf(p.X, 2) / 2,
		Y: modf(p.Y, 2) / 2,
		Z: modf(p.Z, 2) / 2,
	}
}

// Triplanar samples s by projecting p onto the three axis planes and blending the
// samples by the absolute normal components raised to k.
// A zero normal yields a zero sample.
func Triplanar(s Sampler, p, n ms3.Vec, k float32) Vec4 {
	x := s.Sample(ms2.Vec{X: p.Y, Y: p.Z})
	y := s.Sample(ms2.Vec{X: p.Z, Y: p.X})
	z := s.Sample(ms2.Vec{X: p.X, Y: p.Y})
	w := ms3.AbsElem(n)
	w = ms3.Vec{X: math32.Pow(w.X, k), Y: math32.Pow(w.Y, k), Z: math32.Pow(w.Z, k)}
	sum := w.X + w.Y + w.Z
	if sum == 0 {
		return Vec4{}
	}
	return x.Scale(w.X).Add(y.Scale(w.Y)).Add(z.Scale(w.Z)).Scale(1 / sum)
}

// brighten applies sqrt(2*c^2) per channel, used by the textured shading mode.
func brighten(c ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: math32.Sqrt(2 * c.X * c.X),
		Y: math32.Sqrt(2 * c.Y * c.Y),
		Z: math32.Sqrt(2 * c.Z * c.Z),
	}
}
