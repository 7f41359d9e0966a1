package glrender

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Ray is a half line starting at Origin. Dir is unit length when created by a [Camera].
type Ray struct {
	Origin ms3.Vec
	Dir    ms3.Vec
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) ms3.Vec {
	return ms3.Add(r.Origin, ms3.Scale(t, r.Dir))
}

// Camera is a pinhole camera with an orthonormal basis. It is computed once
// per frame and is not modified while the frame renders.
type Camera struct {
	Eye     ms3.Vec
	Forward ms3.Vec
	Right   ms3.Vec
	Up      ms3.Vec
	// Focal is the distance from Eye to the image plane. Larger values narrow the field of view.
	Focal float32
}

// NewCamera returns a camera at eye looking towards target. worldUp orients the camera's roll.
func NewCamera(eye, target, worldUp ms3.Vec, focal float32) Camera {
	forward := Normalize(ms3.Sub(target, eye))
	right := Normalize(ms3.Cross(worldUp, forward))
	up := Normalize(ms3.Cross(forward, right))
	return Camera{
		Eye:     eye,
		Forward: forward,
		Right:   right,
		Up:      up,
		Focal:   focal,
	}
}

// Ray returns the ray through normalized image plane coordinates u,v, both
// in [-1,1] along the shortest viewport side.
func (c Camera) Ray(u, v float32) Ray {
	dir := ms3.Scale(c.Focal, c.Forward)
	dir = ms3.Add(dir, ms3.Scale(u, c.Right))
	dir = ms3.Add(dir, ms3.Scale(v, c.Up))
	return Ray{Origin: c.Eye, Dir: Normalize(dir)}
}

// CameraRig describes a camera whose eye may sway along the X axis over time.
type CameraRig struct {
	Eye    ms3.Vec
	Target ms3.Vec
	// WorldUp defaults to +Y when zero.
	WorldUp ms3.Vec
	// Focal defaults to DefaultFocalLength when zero.
	Focal float32
	// SwayX is the amplitude of the eye's X oscillation. Zero keeps the eye still.
	SwayX float32
	// SwayFreq is the frequency of the eye's X oscillation in Hz.
	SwayFreq float32
}

// At returns the camera at time t in seconds.
func (rig CameraRig) At(t float32) Camera {
	eye := rig.Eye
	if rig.SwayX != 0 {
		eye.X += rig.SwayX * math32.Sin(2*math32.Pi*rig.SwayFreq*t)
	}
	up := rig.WorldUp
	if up == (ms3.Vec{}) {
		up = ms3.Vec{Y: 1}
	}
	focal := rig.Focal
	if focal == 0 {
		focal = DefaultFocalLength
	}
	return NewCamera(eye, rig.Target, up, focal)
}

// NormalizedCoords maps a fragment coordinate (origin bottom-left, pixel centers at +0.5)
// to image plane coordinates. Both axes are scaled by the shortest side of the viewport.
func NormalizedCoords(fragX, fragY float32, viewport [2]int) (u, v float32) {
	short := float32(min(viewport[0], viewport[1]))
	u = fragX*2/short - 1
	v = fragY*2/short - 1
	return u, v
}
