package interstella

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

func (s *sphere) Distance(p ms3.Vec, t float32) float32 {
	return ms3.Norm(p) - s.r
}

func (s *roundBox) Distance(p ms3.Vec, t float32) float32 {
	q := ms3.Sub(ms3.AbsElem(p), s.half)
	q = ms3.MaxElem(q, ms3.Vec{X: roundBoxFloor, Y: roundBoxFloor, Z: roundBoxFloor})
	return ms3.Norm(q) - s.r
}

func (s *box) Distance(p ms3.Vec, t float32) float32 {
	q := ms3.Sub(ms3.AbsElem(p), s.half)
	return ms3.Norm(ms3.MaxElem(q, ms3.Vec{})) + minf(maxf(q.X, maxf(q.Y, q.Z)), 0)
}

func (s *plane) Distance(p ms3.Vec, t float32) float32 {
	return ms3.Dot(p, s.n) + s.h
}

func (u *OpUnion) Distance(p ms3.Vec, t float32) float32 {
	u.mustValidate()
	d := distance(u.joined[0], p, t)
	for _, s := range u.joined[1:] {
		d = minf(d, distance(s, p, t))
	}
	return d
}

func (s *translate) Distance(p ms3.Vec, t float32) float32 {
	return distance(s.s, ms3.Sub(p, s.p), t)
}

func (s *oscillate) Distance(p ms3.Vec, t float32) float32 {
	return distance(s.s, ms3.Sub(p, ms3.Scale(s.displacement(t), s.axis)), t)
}

// displacement returns the signed offset along the oscillation axis at time t.
func (s *oscillate) displacement(t float32) float32 {
	return s.amp * math32.Cos(tau*s.freq*t+s.phase)
}
