package interstella

import (
	"fmt"

	"github.com/ryry0/Interstella/glbuild"
	"github.com/soypat/geometry/ms3"
)

// OpUnion is the result of the [Builder.Union] operation. Prefer using [Builder.Union] to using this type directly.
//
// OpUnion is exported since it is the root of most scenes and users may want
// to walk a scene's top level shapes.
type OpUnion struct {
	// joined contains 2 or more 3D SDFs.
	// OpUnion methods will panic if joined less than 2 elements.
	joined []glbuild.Shader3D
}

// Union joins the shapes of several 3D SDFs into one. Is exact.
// Union aggregates nested Union results into its own. To prevent this behaviour use [OpUnion] directly.
func (bld *Builder) Union(shapes ...Shape) Shape {
	if len(shapes) < 2 {
		panic("need at least 2 arguments to Union")
	}
	var U OpUnion
	for i, s := range shapes {
		if s == nil {
			bld.nilsdf(fmt.Sprintf("nil arg[%d] to Union", i))
		}
		if subU, ok := s.(*OpUnion); ok {
			// Discard nested union elements and join their elements.
			// Results in much smaller and readable GLSL code.
			U.joined = append(U.joined, subU.joined...)
		} else {
			U.joined = append(U.joined, s)
		}
	}
	return &U
}

// Len returns the number of shapes joined.
func (u *OpUnion) Len() int { return len(u.joined) }

// ForEachChild implements [glbuild.Shader3D].
func (u *OpUnion) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	u.mustValidate()
	for i := range u.joined {
		err := fn(userData, &u.joined[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// AppendShaderName implements [glbuild.Shader].
func (u *OpUnion) AppendShaderName(b []byte) []byte {
	u.mustValidate()
	b = append(b, "union_"...)
	for i := range u.joined {
		b = u.joined[i].AppendShaderName(b)
		if i < len(u.joined)-1 {
			b = append(b, '_')
		}
	}
	return b
}

// AppendShaderBody implements [glbuild.Shader].
func (u *OpUnion) AppendShaderBody(b []byte) []byte {
	u.mustValidate()
	b = glbuild.AppendDistanceDecl(b, "d", "p", u.joined[0])
	for i := range u.joined[1:] {
		b = append(b, "d=min(d,"...)
		b = u.joined[i+1].AppendShaderName(b)
		b = append(b, "(p));\n"...)
	}
	b = append(b, "return d;"...)
	return b
}

func (u *OpUnion) mustValidate() {
	if len(u.joined) < 2 {
		panic("OpUnion must have at least 2 elements. please prefer using Builder.Union over OpUnion")
	}
}

// Translate moves the SDF s in the given direction (dirX, dirY, dirZ) and returns the result.
func (bld *Builder) Translate(s Shape, dirX, dirY, dirZ float32) Shape {
	if s == nil {
		bld.nilsdf("Translate")
	}
	return &translate{s: s, p: ms3.Vec{X: dirX, Y: dirY, Z: dirZ}}
}

type translate struct {
	s glbuild.Shader3D
	p ms3.Vec
}

func (s *translate) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return fn(userData, &s.s)
}

func (s *translate) AppendShaderName(b []byte) []byte {
	b = append(b, "translate"...)
	arr := s.p.Array()
	b = glbuild.AppendFloats(b, 0, 'n', 'p', arr[:]...)
	b = append(b, '_')
	b = s.s.AppendShaderName(b)
	return b
}

func (s *translate) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec3Decl(b, "t", s.p)
	b = append(b, "return "...)
	b = s.s.AppendShaderName(b)
	b = append(b, "(p-t);"...)
	return b
}

// Oscillate moves s back and forth along axis over time. At time t the shape is
// displaced by axis*amplitude*cos(2*pi*freq*t + phase). The displacement is
// recomputed on every evaluation.
func (bld *Builder) Oscillate(s Shape, axis ms3.Vec, amplitude, freq, phase float32) Shape {
	if s == nil {
		bld.nilsdf("Oscillate")
	}
	n := ms3.Norm(axis)
	if n < epstol {
		bld.shapeErrorf("zero length oscillation axis")
		axis = ms3.Vec{X: 1}
	} else {
		axis = ms3.Scale(1/n, axis)
	}
	return &oscillate{s: s, axis: axis, amp: amplitude, freq: freq, phase: phase}
}

type oscillate struct {
	s     glbuild.Shader3D
	axis  ms3.Vec
	amp   float32
	freq  float32
	phase float32
}

func (s *oscillate) ForEachChild(userData any, fn func(userData any, s *glbuild.Shader3D) error) error {
	return fn(userData, &s.s)
}

func (s *oscillate) AppendShaderName(b []byte) []byte {
	b = append(b, "osc"...)
	arr := s.axis.Array()
	b = glbuild.AppendFloats(b, 0, 'n', 'p', arr[:]...)
	b = glbuild.AppendFloats(b, 0, 'n', 'p', s.amp, s.freq, s.phase)
	b = append(b, '_')
	b = s.s.AppendShaderName(b)
	return b
}

func (s *oscillate) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec3Decl(b, "a", s.axis)
	b = append(b, "float k=("...)
	b = glbuild.AppendFloat(b, '-', '.', s.amp)
	b = append(b, ")*cos("...)
	b = glbuild.AppendFloat(b, '-', '.', tau*s.freq)
	b = append(b, '*')
	b = append(b, glbuild.TimeUniform...)
	b = append(b, "+("...)
	b = glbuild.AppendFloat(b, '-', '.', s.phase)
	b = append(b, "));\nreturn "...)
	b = s.s.AppendShaderName(b)
	b = append(b, "(p-a*k);"...)
	return b
}
