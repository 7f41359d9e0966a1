package glsllib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ryry0/Interstella/glbuild"
)

func TestLibraryNames(t *testing.T) {
	want := []string{
		"stellaNormalize",
		"stellaRayMarch",
		"stellaNormal",
		"stellaCastShadow",
		"stellaLambertLight",
		"stellaApplyFog",
		"stellaPeriodize",
		"stellaTriplanar",
	}
	lib := Library()
	if len(lib) != len(want) {
		t.Fatalf("got %d library functions, want %d", len(lib), len(want))
	}
	for i, obj := range lib {
		if err := obj.Validate(); err != nil {
			t.Error(err)
		}
		if string(obj.NamePtr) != want[i] {
			t.Errorf("function %d: got name %q, want %q", i, obj.NamePtr, want[i])
		}
	}
}

func TestLibraryWritesOnce(t *testing.T) {
	var buf bytes.Buffer
	p := glbuild.NewDefaultProgrammer()
	lib := append(Library(), Library()...)
	_, err := p.WriteFunctions(&buf, lib...)
	if err != nil {
		t.Fatal(err)
	}
	src := buf.String()
	if n := strings.Count(src, "vec3 stellaNormalize("); n != 1 {
		t.Errorf("normalize written %d times, want 1", n)
	}
	if !strings.Contains(src, SceneFunc+"(") {
		t.Errorf("library should call %s", SceneFunc)
	}
}

func TestAppendConstants(t *testing.T) {
	got := string(AppendConstants(nil))
	for _, want := range []string{
		"const int stellaMaxMarchSteps=64;\n",
		"const int stellaMaxShadowSteps=50;\n",
		"const float stellaHitEpsilon=0.001;\n",
		"const float stellaFarLimit=30.;\n",
		"const float stellaShadowStart=0.01", // 10*HitEpsilon prints as 0.010000001 in float32.
		"const float stellaShadowSharpness=16.;\n",
		"const float stellaFogDensity=0.2", // float32 rounding may add trailing digits.
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}
