package interstella

import (
	"github.com/ryry0/Interstella/glbuild"
	"github.com/soypat/geometry/ms3"
)

type sphere struct {
	r float32
}

// NewSphere creates a sphere centered at the origin of radius r.
func (bld *Builder) NewSphere(r float32) Shape {
	valid := r > 0
	if !valid {
		bld.shapeErrorf("zero or negative sphere radius")
	}
	return &sphere{r: r}
}

func (s *sphere) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return nil
}

func (s *sphere) AppendShaderName(b []byte) []byte {
	b = append(b, "sphere"...)
	b = glbuild.AppendFloat(b, 'n', 'p', s.r)
	return b
}

func (s *sphere) AppendShaderBody(b []byte) []byte {
	b = append(b, "return length(p)-"...)
	b = glbuild.AppendFloat(b, '-', '.', s.r)
	b = append(b, ';')
	return b
}

// roundBoxFloor is the lower clamp applied to the box's per-axis excess distance.
// It keeps the rounded box from collapsing to a sharp box when the corner radius is small.
const roundBoxFloor = 0.01

// NewRoundBox creates a box with rounded corners centered at the origin.
// halfExtents are the half side lengths along each axis before rounding and
// cornerRadius inflates the box outward.
//
// The result is an unsigned bound, not an exact distance: excess distances are
// clamped below at 0.01 per axis, so the field never goes negative far inside the box
// and is only approximately the euclidean distance near the surface.
func (bld *Builder) NewRoundBox(halfExtents ms3.Vec, cornerRadius float32) Shape {
	if halfExtents.X <= 0 || halfExtents.Y <= 0 || halfExtents.Z <= 0 {
		bld.shapeErrorf("zero or negative box dimension")
	}
	if cornerRadius < 0 {
		bld.shapeErrorf("negative box corner radius")
	}
	return &roundBox{half: halfExtents, r: cornerRadius}
}

type roundBox struct {
	half ms3.Vec
	r    float32
}

func (s *roundBox) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return nil
}

func (s *roundBox) AppendShaderName(b []byte) []byte {
	b = append(b, "rbox"...)
	arr := s.half.Array()
	b = glbuild.AppendFloats(b, 0, 'n', 'p', arr[:]...)
	b = glbuild.AppendFloat(b, 'n', 'p', s.r)
	return b
}

func (s *roundBox) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec3Decl(b, "d", s.half)
	b = append(b, "return length(max(abs(p)-d,"...)
	b = glbuild.AppendFloat(b, '-', '.', roundBoxFloor)
	b = append(b, "))-"...)
	b = glbuild.AppendFloat(b, '-', '.', s.r)
	b = append(b, ';')
	return b
}

// NewBox creates a box centered at the origin with exact signed distance.
// halfExtents are the half side lengths along each axis.
func (bld *Builder) NewBox(halfExtents ms3.Vec) Shape {
	if halfExtents.X <= 0 || halfExtents.Y <= 0 || halfExtents.Z <= 0 {
		bld.shapeErrorf("zero or negative box dimension")
	}
	return &box{half: halfExtents}
}

type box struct {
	half ms3.Vec
}

func (s *box) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return nil
}

func (s *box) AppendShaderName(b []byte) []byte {
	b = append(b, "box"...)
	arr := s.half.Array()
	b = glbuild.AppendFloats(b, 0, 'n', 'p', arr[:]...)
	return b
}

func (s *box) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec3Decl(b, "d", s.half)
	b = append(b, `vec3 q = abs(p)-d;
return length(max(q,0.0)) + min(max(q.x,max(q.y,q.z)),0.0);`...)
	return b
}

// NewPlane creates the infinite plane dot(p,normal)+offset = 0. The normal
// points towards the outside and is normalized. A zero normal is an error.
func (bld *Builder) NewPlane(normal ms3.Vec, offset float32) Shape {
	n := ms3.Norm(normal)
	if n < epstol {
		bld.shapeErrorf("zero length plane normal")
		normal = ms3.Vec{Y: 1}
	} else {
		normal = ms3.Scale(1/n, normal)
	}
	return &plane{n: normal, h: offset}
}

type plane struct {
	n ms3.Vec
	h float32
}

func (s *plane) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return nil
}

func (s *plane) AppendShaderName(b []byte) []byte {
	b = append(b, "plane"...)
	arr := s.n.Array()
	b = glbuild.AppendFloats(b, 0, 'n', 'p', arr[:]...)
	b = glbuild.AppendFloat(b, 'n', 'p', s.h)
	return b
}

func (s *plane) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec3Decl(b, "n", s.n)
	b = append(b, "return dot(p,n)+"...)
	b = glbuild.AppendFloat(b, '-', '.', s.h)
	b = append(b, ';')
	return b
}
