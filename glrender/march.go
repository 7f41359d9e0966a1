package glrender

import (
	"github.com/chewxy/math32"
	"github.com/ryry0/Interstella/gleval"
	"github.com/soypat/geometry/ms3"
)

// MarchResult is the outcome of marching a single ray.
type MarchResult struct {
	Hit bool
	// Distance is the distance traveled along the ray. On a miss it is the
	// last distance reached, which is still used for fog.
	Distance float32
	// Steps is the number of field evaluations performed.
	Steps int
}

// RayMarch sphere traces the ray through sdf at time t. dir must be unit length.
//
// The march stops with a hit when the field drops below [HitEpsilon] and with a
// miss once the traveled distance exceeds [FarLimit]. Running out of steps
// before either happens is also reported as a miss, with the partial distance.
func RayMarch(sdf gleval.SDF3, origin, dir ms3.Vec, t float32) MarchResult {
	var traveled float32
	for i := 0; i < MaxMarchSteps; i++ {
		d := sdf.Distance(ms3.Add(origin, ms3.Scale(traveled, dir)), t)
		if d < HitEpsilon {
			return MarchResult{Hit: true, Distance: traveled, Steps: i + 1}
		} else if traveled > FarLimit {
			return MarchResult{Hit: false, Distance: traveled, Steps: i + 1}
		}
		traveled += d
	}
	return MarchResult{Hit: false, Distance: traveled, Steps: MaxMarchSteps}
}

// ComputeNormal estimates the surface normal at p with central differences of the field.
func ComputeNormal(sdf gleval.SDF3, p ms3.Vec, t float32) ms3.Vec {
	const h = NormalDelta
	dx := sdf.Distance(ms3.Add(p, ms3.Vec{X: h}), t) - sdf.Distance(ms3.Sub(p, ms3.Vec{X: h}), t)
	dy := sdf.Distance(ms3.Add(p, ms3.Vec{Y: h}), t) - sdf.Distance(ms3.Sub(p, ms3.Vec{Y: h}), t)
	dz := sdf.Distance(ms3.Add(p, ms3.Vec{Z: h}), t) - sdf.Distance(ms3.Sub(p, ms3.Vec{Z: h}), t)
	return Normalize(ms3.Vec{X: dx, Y: dy, Z: dz})
}

// CastShadow marches from p towards lightPos and returns a soft shadow factor.
// Zero means p is occluded. Otherwise the result is the smallest
// k*distance/traveled ratio seen along the way, starting at 1, so rays that graze
// geometry produce a penumbra. The result is not clamped to 1 from below the light distance.
func CastShadow(sdf gleval.SDF3, p, lightPos ms3.Vec, k, t float32) float32 {
	toLight := ms3.Sub(lightPos, p)
	maxDist := ms3.Norm(toLight)
	dir := Normalize(toLight)
	result := float32(1)
	traveled := ShadowStart
	for i := 0; i < MaxShadowSteps; i++ {
		d := sdf.Distance(ms3.Add(p, ms3.Scale(traveled, dir)), t)
		if d < HitEpsilon {
			return 0
		}
		result = math32.Min(result, k*d/traveled)
		traveled += d
		if traveled >= maxDist {
			break
		}
	}
	return result
}
