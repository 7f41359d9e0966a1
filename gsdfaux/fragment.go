package gsdfaux

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	interstella "github.com/ryry0/Interstella"
	"github.com/ryry0/Interstella/glbuild"
	"github.com/ryry0/Interstella/glbuild/glsllib"
	"github.com/ryry0/Interstella/glrender"
	"github.com/soypat/geometry/ms3"
)

// Uniform names read by the fragment shader written by [WriteFragmentShader].
const (
	ResolutionUniform = "uResolution"
	SamplerUniform    = "uSampler"
)

const vertexShader = glbuild.VersionStr + `in vec2 aPos;
out vec2 vTexCoord;
void main() {
	vTexCoord = aPos * 0.5 + 0.5;
	gl_Position = vec4(aPos, 0.0, 1.0);
}
`

// WriteFragmentShader writes a complete fragment shader that renders demo the
// same way [glrender.Config.Shade] does. The shader reads the time in seconds from
// the [glbuild.TimeUniform] uniform, the virtual viewport size in pixels from
// [ResolutionUniform] and the texture from [SamplerUniform]. Camera, lights and
// colors are baked into the source. Nodes of demo.Scene are wrapped in place
// with shortened shader names; CPU rendering of the demo is unchanged.
func WriteFragmentShader(w io.Writer, demo interstella.Demo) (int, error) {
	cfg := &demo.Config
	if demo.Scene == nil {
		return 0, errors.New("demo has no scene")
	}
	var root glbuild.Shader3D = demo.Scene
	err := glbuild.ShortenNames3D(&root, 8)
	if err != nil {
		return 0, fmt.Errorf("shortening shader names: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(glbuild.VersionStr)
	fmt.Fprintf(&buf, "uniform float %s;\nuniform vec2 %s;\nuniform sampler2D %s;\n", glbuild.TimeUniform, ResolutionUniform, SamplerUniform)
	buf.WriteString("in vec2 vTexCoord;\nout vec4 fragColor;\n\n")

	programmer := glbuild.NewDefaultProgrammer()
	rootName, _, err := programmer.WriteSDFDecl(&buf, root)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(&buf, "\nfloat %s(vec3 p) {\n\treturn %s(p);\n}\n\n", glsllib.SceneFunc, rootName)
	buf.Write(glsllib.AppendConstants(nil))
	buf.WriteByte('\n')
	_, err = programmer.WriteFunctions(&buf, glsllib.Library()...)
	if err != nil {
		return 0, err
	}
	buf.Write(appendMain(nil, cfg))
	return w.Write(buf.Bytes())
}

// appendMain appends the main function with the camera, lights and shading of cfg baked in.
func appendMain(b []byte, cfg *glrender.Config) []byte {
	rig := cfg.Camera
	cam := rig.At(0) // Defaults resolved, only the eye moves with time.
	b = append(b, "void main() {\n"...)
	b = append(b, "vec2 fragCoord = vTexCoord * "+ResolutionUniform+";\n"...)
	b = glbuild.AppendVec3Decl(b, "eye", rig.Eye)
	if rig.SwayX != 0 {
		b = append(b, "eye.x += "...)
		b = glbuild.AppendFloat(b, '-', '.', rig.SwayX)
		b = append(b, "*sin("...)
		b = glbuild.AppendFloat(b, '-', '.', 2*math32.Pi*rig.SwayFreq)
		b = append(b, "*"+glbuild.TimeUniform+");\n"...)
	}
	b = glbuild.AppendVec3Decl(b, "target", rig.Target)
	b = glbuild.AppendVec3Decl(b, "worldUp", orDefault(rig.WorldUp, ms3.Vec{Y: 1}))
	b = append(b, `vec3 fw = stellaNormalize(target - eye);
vec3 rt = stellaNormalize(cross(worldUp, fw));
vec3 up = stellaNormalize(cross(fw, rt));
float shortSide = min(`+ResolutionUniform+`.x, `+ResolutionUniform+`.y);
vec2 uv = fragCoord*2./shortSide - 1.;
`...)
	b = glbuild.AppendFloatDecl(b, "focal", cam.Focal)
	b = append(b, `vec3 rd = stellaNormalize(fw*focal + rt*uv.x + up*uv.y);
int steps;
float dist;
bool hit = stellaRayMarch(eye, rd, steps, dist);
`...)
	b = glbuild.AppendVec3Decl(b, "sky", cfg.Sky)
	b = glbuild.AppendVec3Decl(b, "ambient", cfg.Ambient)
	b = append(b, "vec3 col = sky;\nif (hit) {\nvec3 p = eye + rd*dist;\n"...)
	switch cfg.Mode {
	case glrender.ShadeTriplanar:
		b = append(b, `vec3 n = stellaNormal(p);
vec3 c = stellaTriplanar(`+SamplerUniform+`, stellaPeriodize(p), n, stellaTriplanarSharpness).rgb;
col = sqrt(2.*c*c);
`...)
	default:
		if len(cfg.Lights) == 0 {
			b = append(b, "col = ambient;\n"...)
			break
		}
		b = append(b, "col = vec3(0.);\n"...)
		for i, l := range cfg.Lights {
			name := fmt.Sprintf("light%d", i)
			b = glbuild.AppendVec3Decl(b, name, l.Position)
			if l.SwingY != 0 {
				b = append(b, name...)
				b = append(b, ".y += "...)
				b = glbuild.AppendFloat(b, '-', '.', l.SwingY)
				b = append(b, "*sin("...)
				b = glbuild.AppendFloat(b, '-', '.', 2*math32.Pi)
				b = append(b, "*"+glbuild.TimeUniform+");\n"...)
			}
			b = append(b, "col += stellaLambertLight(p, "...)
			b = append(b, name...)
			b = append(b, ", "...)
			b = glbuild.AppendVec3(b, l.Color)
			b = append(b, ", ambient);\n"...)
		}
		b = append(b, "col /= "...)
		b = glbuild.AppendFloat(b, '-', '.', float32(len(cfg.Lights)))
		b = append(b, ";\n"...)
	}
	b = append(b, "}\ncol = stellaApplyFog(col, sky, dist);\nfragColor = vec4(col, 1.);\n}\n"...)
	return b
}

func orDefault(v, def ms3.Vec) ms3.Vec {
	if v == (ms3.Vec{}) {
		return def
	}
	return v
}
