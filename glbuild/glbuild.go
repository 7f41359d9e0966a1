package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/soypat/geometry/ms3"
)

const VersionStr = "#version 430\n"

// TimeUniform is the name of the uniform animated shaders read the frame time from.
// Programs that contain animated shaders must declare it as a float uniform.
const TimeUniform = "uTime"

// Shader stores information for automatically generating SDF Shader pipelines
// and evaluating them correctly on a GPU.
type Shader interface {
	// AppendShaderName appends the name of the GL shader function
	// to the buffer and returns the result. It should be unique to that shader.
	AppendShaderName(b []byte) []byte
	// AppendShaderBody appends the body of the shader function to the
	// buffer and returns the result. The body receives the evaluation position as `p`
	// and may read the [TimeUniform] uniform.
	AppendShaderBody(b []byte) []byte
}

// Shader3D can create SDF shader source code for an arbitrary 3D shape.
type Shader3D interface {
	Shader
	// ForEachChild iterates over the Shader3D's direct Shader3D children.
	// Unary operations have one child i.e: Translate, Oscillate.
	// Union has one child per joined shape.
	ForEachChild(userData any, fn func(userData any, s *Shader3D) error) error
}

// ShaderObject is a handle to a GLSL function needed by a program, such as the
// ray marching and shading library functions written by the glsllib package.
type ShaderObject struct {
	// NamePtr points to the name of the function inside of its source.
	NamePtr    []byte
	funcSource []byte
}

// MakeShaderFunction parses the function name from a GLSL function definition.
func MakeShaderFunction(shaderDef []byte) (sf ShaderObject, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderObject{}, errors.New("unable to parse function name")
	}
	name := shaderDef[fnNameStart:fnNameEnd]
	name = bytes.TrimSpace(name)
	if len(name) == 0 {
		return ShaderObject{}, errors.New("empty function name")
	}
	sf = ShaderObject{
		NamePtr:    name,
		funcSource: shaderDef,
	}
	return sf, nil
}

// Validate checks the ShaderObject was created with [MakeShaderFunction].
func (obj ShaderObject) Validate() error {
	if len(obj.NamePtr) == 0 {
		return errors.New("shader object zero-length name")
	} else if len(obj.funcSource) == 0 {
		return errors.New("shader object has no function source")
	}
	return nil
}

// Programmer implements shader generation logic for Shader type.
type Programmer struct {
	scratchNodes  []Shader
	scratch       []byte
	computeHeader []byte
	// names maps shader names to body hashes for checking duplicates.
	names map[uint64]uint64
	// Invocations size in X (local group size) to give each compute work group.
	invocX int
}

var defaultComputeHeader = []byte("#shader compute\n" + VersionStr)

// NewDefaultProgrammer returns a Programmer with reasonable default parameters for use with glgl package on the local machine.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratchNodes:  make([]Shader, 64),
		scratch:       make([]byte, 1024), // Max length of shader token is around 1024..1060 characters.
		computeHeader: defaultComputeHeader,
		names:         make(map[uint64]uint64),
		invocX:        32,
	}
}

// SetComputeInvocations sets the work group local-sizes. x*y*z must be less than maximum number of invocations.
func (p *Programmer) SetComputeInvocations(x, y, z int) {
	if y != 1 || z != 1 {
		panic("unsupported")
	} else if x < 1 {
		panic("zero or negative X invocation size")
	}
	p.invocX = x
}

// WriteComputeSDF3 creates the bare bones I/O compute program for calculating the SDF
// at a given time and writes it to the writer. Positions are read with a vec4 stride
// so that the std430 layout matches a tightly packed [4]float32 buffer.
func (p *Programmer) WriteComputeSDF3(w io.Writer, obj Shader3D) (int, error) {
	baseName, nodes, err := parseAppendNodes(p.scratchNodes[:0], obj)
	if err != nil {
		return 0, err
	}
	// Begin writing shader source code.
	n, err := w.Write(p.computeHeader)
	if err != nil {
		return n, err
	}
	ngot, err := fmt.Fprintf(w, "uniform float %s;\n\n", TimeUniform)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = p.writeShaders(w, nodes)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = fmt.Fprintf(w, `

layout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;

// Input: 3D positions at which to evaluate SDF, w component unused.
layout(std430, binding = 0) buffer PositionsBuffer {
    vec4 vbo_positions[];
};

// Output: Result of SDF evaluation are the distances. Maps to position buffer.
layout(std430, binding = 1) buffer DistancesBuffer {
    float vbo_distances[];
};

void main() {
	int idx = int( gl_GlobalInvocationID.x );

	vec3 p = vbo_positions[idx].xyz; // Get position to evaluate SDF at.
	vbo_distances[idx] = %s(p);      // Evaluate SDF and store to distance buffer.
}
`, p.invocX, baseName)

	n += ngot
	return n, err
}

// WriteSDFDecl writes the SDF shader function declarations and returns the top-level SDF function name.
// It does not declare the [TimeUniform], callers must do so before the declarations.
func (p *Programmer) WriteSDFDecl(w io.Writer, s Shader3D) (baseName string, n int, err error) {
	baseName, nodes, err := parseAppendNodes(p.scratchNodes[:0], s)
	if err != nil {
		return "", 0, err
	}
	n, err = p.writeShaders(w, nodes)
	if err != nil {
		return "", n, err
	}
	return baseName, n, nil
}

// WriteFunctions writes the function objects to w in order, skipping objects
// already written with identical source. Two distinct functions sharing a name are an error.
func (p *Programmer) WriteFunctions(w io.Writer, objs ...ShaderObject) (n int, err error) {
	written := make(map[uint64]uint64, len(objs))
	for _, obj := range objs {
		err = obj.Validate()
		if err != nil {
			return n, err
		}
		nameHash := hash(obj.NamePtr, 0)
		srcHash := hash(obj.funcSource, nameHash)
		if got, ok := written[nameHash]; ok {
			if got == srcHash {
				continue
			}
			return n, fmt.Errorf("shader function name conflict for %q", obj.NamePtr)
		}
		written[nameHash] = srcHash
		ngot, err := w.Write(obj.funcSource)
		n += ngot
		if err != nil {
			return n, err
		}
		ngot, err = w.Write([]byte("\n\n"))
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (p *Programmer) writeShaders(w io.Writer, nodes []Shader) (n int, err error) {
	clear(p.names)
	for i := len(nodes) - 1; i >= 0; i-- {
		node := nodes[i]
		var name, body []byte
		p.scratch, name, body = appendShaderSource(p.scratch[:0], node)
		nameHash := hash(name, 0)
		bodyHash := hash(body, nameHash) // Body hash mixes name as well.
		gotBodyHash, nameConflict := p.names[nameHash]
		if nameConflict {
			// Name already exists in tree, check if bodies are identical.
			if bodyHash == gotBodyHash {
				continue // Shader already written and is identical, skip.
			}
			// Look for identical shader
			var conflictBody []byte
			for j := i + 1; j < len(nodes); j++ {
				conflictBody = nodes[j].AppendShaderName(conflictBody[:0])
				if bytes.Equal(conflictBody, name) {
					conflictBody = nodes[j].AppendShaderBody(conflictBody[:0])
					break
				}
				conflictBody = conflictBody[:0]
			}
			return n, fmt.Errorf("duplicate %T shader name %q w/ body:\n%s\n\nconflict with distinct shader with same name:\n%s", unwraproot(node), name, body, conflictBody)
		}
		p.names[nameHash] = bodyHash
		ngot, err := w.Write(p.scratch)
		n += ngot
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

const shorteningBufsize = 1024

// ShortenNames3D rewrites the names of all shaders in the tree that are longer than
// maxRewriteLen so that the generated GLSL stays within token limits of GL drivers.
// The rewritten shaders keep evaluating identically on the CPU.
func ShortenNames3D(root *Shader3D, maxRewriteLen int) error {
	scratch := make([]byte, shorteningBufsize)
	rewrite3 := func(a any, s3 *Shader3D) error {
		scratch = rewriteName3(s3, scratch, maxRewriteLen)
		return nil
	}
	err := forEachNodeBFS(*root, rewrite3)
	if err != nil {
		return err
	}
	return rewrite3(nil, root)
}

func rewriteName3(s3 *Shader3D, scratch []byte, rewritelen int) []byte {
	sd3 := *s3
	if _, ok := sd3.(*nameOverloadShader3D); ok {
		return scratch // Already overloaded.
	}
	name, scratch := makeShortname(sd3, scratch, rewritelen)
	if name == nil {
		return scratch
	}
	*s3 = &nameOverloadShader3D{Shader: sd3, name: name}
	return scratch
}

func makeShortname(s Shader, scratch []byte, rewritelen int) (newNameOrNil []byte, newScratch []byte) {
	var h uint64 = 0xff51afd7ed558ccd
	scratch = s.AppendShaderName(scratch[:0])
	if len(scratch) < rewritelen {
		return nil, scratch // Already short name, no need to rewrite.
	}
	newName := append([]byte{}, scratch[:rewritelen]...)
	h = hash(scratch, h)
	scratch = s.AppendShaderBody(scratch[:0])
	h = hash(scratch, h)
	newName = strconv.AppendUint(newName, h, 32)
	return newName, scratch
}

// parseAppendNodes appends root and its descendants breadth first to dst and
// returns root's name.
func parseAppendNodes(dst []Shader, root Shader3D) (baseName string, nodes []Shader, err error) {
	if root == nil {
		return "", nil, errors.New("nil shader object")
	}
	baseName = string(root.AppendShaderName([]byte{}))
	if baseName == "" {
		return "", nil, errors.New("empty shader name")
	}
	dst, err = appendAllNodes(dst, root)
	if err != nil {
		return "", nil, err
	}
	return baseName, dst, nil
}

// appendShaderSource appends the GLSL function of s to dst. name and body
// alias the returned buffer.
func appendShaderSource(dst []byte, s Shader) (result, name, body []byte) {
	dst = append(dst, "float "...)
	nameStart := len(dst)
	dst = s.AppendShaderName(dst)
	nameEnd := len(dst)
	dst = append(dst, "(vec3 p){\n"...)
	bodyStart := len(dst)
	dst = s.AppendShaderBody(dst)
	bodyEnd := len(dst)
	dst = append(dst, "\n}\n"...)
	return dst, dst[nameStart:nameEnd], dst[bodyStart:bodyEnd]
}

// appendAllNodes appends root and its descendants breadth first. Declarations
// are written by iterating the result in reverse so children precede parents.
func appendAllNodes(dst []Shader, root Shader3D) ([]Shader, error) {
	dst = append(dst, root)
	err := forEachNodeBFS(root, func(userData any, s *Shader3D) error {
		dst = append(dst, *s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

func forEachNodeBFS(root Shader3D, fn func(userData any, s3 *Shader3D) error) error {
	var userData any
	children := []Shader3D{root}
	nextChild := 0
	nilChild := errors.New("got nil child in shader tree")
	for len(children[nextChild:]) > 0 {
		newChildren := children[nextChild:]
		for _, obj := range newChildren {
			nextChild++
			err := obj.ForEachChild(userData, func(userData any, s *Shader3D) error {
				if s == nil || *s == nil {
					return nilChild
				}
				children = append(children, *s)
				return fn(userData, s)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func forEachNodeDFS(obj Shader3D, fnEnter, fnExit func(s3 Shader3D) error) (err error) {
	err = fnEnter(obj)
	if err != nil {
		return err
	}
	err = obj.ForEachChild(nil, func(userData any, s *Shader3D) error {
		return forEachNodeDFS(*s, fnEnter, fnExit)
	})
	if err != nil {
		return err
	}
	return fnExit(obj)
}

func countDirectChildren(obj Shader3D) (directChildren int) {
	obj.ForEachChild(nil, func(userData any, s *Shader3D) error {
		directChildren++
		return nil
	})
	return directChildren
}

func AppendDistanceDecl(b []byte, floatVarname, sdfPositionArgInput string, s Shader) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = s.AppendShaderName(b)
	b = append(b, '(')
	b = append(b, sdfPositionArgInput...)
	b = append(b, ");\n"...)
	return b
}

func AppendVec3Decl(b []byte, vec3Varname string, v ms3.Vec) []byte {
	b = append(b, "vec3 "...)
	b = append(b, vec3Varname...)
	b = append(b, '=')
	b = AppendVec3(b, v)
	b = append(b, ';', '\n')
	return b
}

// AppendVec3 appends a vec3 GLSL literal, i.e: vec3(1.,0.5,-2.)
func AppendVec3(b []byte, v ms3.Vec) []byte {
	b = append(b, "vec3("...)
	arr := v.Array()
	b = AppendFloats(b, ',', '-', '.', arr[:]...)
	b = append(b, ')')
	return b
}

func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

func AppendIntDecl(b []byte, intVarname string, v int) []byte {
	b = append(b, "int "...)
	b = append(b, intVarname...)
	b = append(b, '=')
	b = strconv.AppendInt(b, int64(v), 10)
	b = append(b, ';', '\n')
	return b
}

const decimalDigits = 9

// AppendFloat appends v to b replacing the negative sign with neg and the decimal point with decimal.
// Pass 'n' and 'p' to get a float representation usable inside GLSL identifiers.
func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

type nameOverloadShader3D struct {
	Shader Shader3D
	name   []byte
}

// ForEachChild calls the underlying Shader's ForEachChild. Implements [Shader3D].
func (nos3 *nameOverloadShader3D) ForEachChild(userData any, fn func(userData any, s *Shader3D) error) error {
	return nos3.Shader.ForEachChild(userData, fn)
}

func (nos3 *nameOverloadShader3D) AppendShaderBody(b []byte) []byte {
	return nos3.Shader.AppendShaderBody(b)
}

func (nos3 *nameOverloadShader3D) AppendShaderName(b []byte) []byte {
	return append(b, nos3.name...)
}

// mirror of gleval.SDF3 interface to avoid cyclic dependencies.
type sdf3 interface {
	Distance(p ms3.Vec, t float32) float32
}

// Distance forwards CPU evaluation to the underlying shader. Panics if it does not implement gleval.SDF3.
func (nos3 *nameOverloadShader3D) Distance(p ms3.Vec, t float32) float32 {
	return nos3.Shader.(sdf3).Distance(p, t)
}

func (nos3 *nameOverloadShader3D) unwrap() Shader { return nos3.Shader }

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]

	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}

func unwraproot(s Shader) Shader {
	i := 0
	var sbase Shader
	for s != nil && i < 6 {
		sbase = s
		s = unwrap(s)
		i++
	}
	return sbase
}

func unwrap(s Shader) Shader {
	if unwrapper, ok := s.(interface{ unwrap() Shader }); ok {
		return unwrapper.unwrap()
	}
	return nil
}

// FormatShader returns a compact description of the shader tree, i.e: "OpUnion(sphere,plane)".
func FormatShader(sh Shader3D) string {
	if sh == nil {
		panic("nil shader")
	}
	prevWasPrimitive := false
	var sb strings.Builder
	err := forEachNodeDFS(sh, func(s Shader3D) error {
		if prevWasPrimitive {
			sb.WriteByte(',')
		}
		tp := reflect.TypeOf(unwraproot(s))
		if tp.Kind() == reflect.Pointer {
			tp = tp.Elem()
		}
		sb.WriteString(tp.Name())
		if countDirectChildren(s) > 0 {
			sb.WriteByte('(')
			prevWasPrimitive = false
		}
		return nil
	}, func(s Shader3D) error {
		isPrimitive := countDirectChildren(s) == 0
		if !isPrimitive {
			sb.WriteByte(')')
		}
		prevWasPrimitive = true
		return nil
	})
	if err != nil {
		return err.Error()
	}
	return sb.String()
}
